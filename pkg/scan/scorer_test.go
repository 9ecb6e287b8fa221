package scan

import (
	"strings"
	"testing"
	"time"
)

func healthyMarket() Market {
	return Market{
		ID:              "m1",
		Slug:            "healthy-market",
		EventID:         "e1",
		Active:          true,
		AcceptingOrders: true,
		Outcomes:        []string{"Yes", "No"},
		OutcomePrices:   []*float64{ptr(0.45), ptr(0.55)},
		Volume24hr:      ptr(10000.0),
		Liquidity:       ptr(50000.0),
		BestBid:         ptr(0.44),
		BestAsk:         ptr(0.46),
	}
}

func freshBook(nowISO string) *OrderbookSnapshot {
	snap := NormalizeOrderbook(RawOrderbook{
		TokenID:   "t1",
		Bids:      []PriceLevel{{Price: 0.44, Size: 100}},
		Asks:      []PriceLevel{{Price: 0.46, Size: 100}},
		Timestamp: nowISO,
	})
	return &snap
}

const testNow = "2024-06-01T12:00:00Z"

func TestScoreMarketBounds(t *testing.T) {
	m := healthyMarket()
	m.OneHourPriceChange = ptr(0.30) // extreme move

	signal, _ := ScoreMarket(m, freshBook(testNow), nil, testNow, 24)

	if signal.MarketProb < 0.01 || signal.MarketProb > 0.99 {
		t.Errorf("Market prob out of bounds: %f", signal.MarketProb)
	}
	if signal.FairProbProxy < 0.01 || signal.FairProbProxy > 0.99 {
		t.Errorf("Fair prob out of bounds: %f", signal.FairProbProxy)
	}
	if signal.MispricingScore < 0 || signal.MispricingScore > 100 {
		t.Errorf("Score out of bounds: %f", signal.MispricingScore)
	}
	if len(signal.Rationale) == 0 {
		t.Error("Rationale should never be empty")
	}
	if len(signal.RiskFlags) == 0 {
		t.Error("Risk flags should never be empty")
	}
}

func TestScoreMarketEmptyInputs(t *testing.T) {
	signal, trace := ScoreMarket(Market{ID: "bare", Slug: "bare"}, nil, nil, testNow, 24)

	if signal.MarketProb != 0.5 {
		t.Errorf("Unknown market should resolve to 0.5, got %f", signal.MarketProb)
	}
	if len(signal.RiskFlags) == 0 {
		t.Error("Risk flags should never be empty")
	}
	if len(signal.Rationale) == 0 {
		t.Error("Rationale should never be empty")
	}
	if trace.SpreadBps != nil {
		t.Error("Bare market should have no spread")
	}
	if !hasFlag(signal.RiskFlags, "missing spread data") {
		t.Errorf("Expected missing-spread flag, got %v", signal.RiskFlags)
	}
	if !hasFlag(signal.RiskFlags, "limited momentum history") {
		t.Errorf("Expected momentum flag, got %v", signal.RiskFlags)
	}
}

func TestScoreMarketSideSelection(t *testing.T) {
	m := healthyMarket()
	m.OneHourPriceChange = ptr(0.05) // up-move, mean reversion pushes fair down

	signal, _ := ScoreMarket(m, freshBook(testNow), nil, testNow, 1)
	if signal.Side != SideNo {
		t.Errorf("Negative edge should favor NO, got %s", signal.Side)
	}

	m.OneHourPriceChange = ptr(-0.05)
	signal, _ = ScoreMarket(m, freshBook(testNow), nil, testNow, 1)
	if signal.Side != SideYes {
		t.Errorf("Positive edge should favor YES, got %s", signal.Side)
	}
}

func TestScoreMarketConfidenceTiers(t *testing.T) {
	// Strong everything: deep book, momentum, partition dislocation.
	m := healthyMarket()
	m.OutcomePrices = []*float64{ptr(0.30), ptr(0.70)}
	m.OneHourPriceChange = ptr(-0.06)
	related := []Market{sibling("s1", 0.25), sibling("s2", 0.25)}

	signal, trace := ScoreMarket(m, freshBook(testNow), related, testNow, 1)

	if signal.Confidence != ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s (score=%f edge=%f penalties=%f)",
			signal.Confidence, signal.MispricingScore, signal.EdgePct,
			trace.StalePenalty+trace.LowActivityPenalty)
	}
	if signal.MispricingScore < 70 || signal.EdgePct < 1.5 {
		t.Errorf("High tier thresholds not met: score=%f edge=%f", signal.MispricingScore, signal.EdgePct)
	}

	// Weak market: no data at all lands in the low tier.
	weak, _ := ScoreMarket(Market{ID: "w", Slug: "w"}, nil, nil, testNow, 24)
	if weak.Confidence != ConfidenceLow {
		t.Errorf("Bare market should be low confidence, got %s", weak.Confidence)
	}
	if !hasFlag(weak.RiskFlags, "low confidence signal") {
		t.Errorf("Low tier should carry its flag, got %v", weak.RiskFlags)
	}
}

func TestScoreMarketStalePenalty(t *testing.T) {
	m := healthyMarket()
	now, _ := time.Parse(time.RFC3339, testNow)

	fresh := freshBook(testNow)
	aged := freshBook(now.Add(-30 * time.Minute).Format(time.RFC3339))
	old := freshBook(now.Add(-2 * time.Hour).Format(time.RFC3339))

	_, freshTrace := ScoreMarket(m, fresh, nil, testNow, 24)
	_, agedTrace := ScoreMarket(m, aged, nil, testNow, 24)
	_, oldTrace := ScoreMarket(m, old, nil, testNow, 24)

	if freshTrace.StalePenalty != 0 {
		t.Errorf("Fresh book should have no penalty, got %f", freshTrace.StalePenalty)
	}
	if agedTrace.StalePenalty != 0.07 {
		t.Errorf("30min old book should cost 0.07, got %f", agedTrace.StalePenalty)
	}
	if oldTrace.StalePenalty != 0.14 {
		t.Errorf("2h old book should cost 0.14, got %f", oldTrace.StalePenalty)
	}

	oldSignal, _ := ScoreMarket(m, old, nil, testNow, 24)
	if !hasFlag(oldSignal.RiskFlags, "stale orderbook snapshot") {
		t.Errorf("Stale book should be flagged, got %v", oldSignal.RiskFlags)
	}

	// No book at all: age unknown.
	_, noneTrace := ScoreMarket(m, nil, nil, testNow, 24)
	if noneTrace.StalePenalty != 0.04 {
		t.Errorf("Unknown age should cost 0.04, got %f", noneTrace.StalePenalty)
	}
	if noneTrace.StalenessMinutes != nil {
		t.Error("Missing book should give nil staleness")
	}
}

func TestScoreMarketLowActivityPenalty(t *testing.T) {
	m := healthyMarket()

	m.Volume24hr = ptr(100.0)
	_, trace := ScoreMarket(m, freshBook(testNow), nil, testNow, 24)
	if trace.LowActivityPenalty != 0.16 {
		t.Errorf("Volume below 250 should cost 0.16, got %f", trace.LowActivityPenalty)
	}

	m.Volume24hr = ptr(1000.0)
	_, trace = ScoreMarket(m, freshBook(testNow), nil, testNow, 24)
	if trace.LowActivityPenalty != 0.08 {
		t.Errorf("Volume below 2500 should cost 0.08, got %f", trace.LowActivityPenalty)
	}

	m.Volume24hr = nil
	signal, trace := ScoreMarket(m, freshBook(testNow), nil, testNow, 24)
	if trace.LowActivityPenalty != 0.16 {
		t.Errorf("Missing volume should cost 0.16, got %f", trace.LowActivityPenalty)
	}
	if !hasFlag(signal.RiskFlags, "low 24h activity") {
		t.Errorf("Low activity should be flagged, got %v", signal.RiskFlags)
	}
}

func TestScoreMarketThinLiquidityFlag(t *testing.T) {
	m := healthyMarket()
	m.Liquidity = ptr(500.0)

	signal, _ := ScoreMarket(m, freshBook(testNow), nil, testNow, 24)
	if !hasFlag(signal.RiskFlags, "thin liquidity") {
		t.Errorf("Thin liquidity should be flagged, got %v", signal.RiskFlags)
	}
}

func TestScoreMarketWideSpreadFlag(t *testing.T) {
	m := healthyMarket()
	snap := NormalizeOrderbook(RawOrderbook{
		Bids:      []PriceLevel{{Price: 0.30, Size: 10}},
		Asks:      []PriceLevel{{Price: 0.50, Size: 10}},
		Timestamp: testNow,
	})

	signal, trace := ScoreMarket(m, &snap, nil, testNow, 24)
	if trace.SpreadBps == nil || *trace.SpreadBps <= 400 {
		t.Fatalf("Test book should be wide, got %v", trace.SpreadBps)
	}
	if !hasFlag(signal.RiskFlags, "wide spread execution risk") {
		t.Errorf("Wide spread should be flagged, got %v", signal.RiskFlags)
	}
}

func TestScoreMarketRounding(t *testing.T) {
	m := healthyMarket()
	m.OneHourPriceChange = ptr(0.0123456)

	signal, _ := ScoreMarket(m, freshBook(testNow), nil, testNow, 24)

	if signal.MarketProb != round4(signal.MarketProb) {
		t.Errorf("MarketProb not rounded to 4 decimals: %v", signal.MarketProb)
	}
	if signal.EdgePct != round2(signal.EdgePct) {
		t.Errorf("EdgePct not rounded to 2 decimals: %v", signal.EdgePct)
	}
	if signal.MispricingScore != round2(signal.MispricingScore) {
		t.Errorf("Score not rounded to 2 decimals: %v", signal.MispricingScore)
	}
}

func TestScoreMarketRationaleOrder(t *testing.T) {
	m := healthyMarket()
	m.OutcomePrices = []*float64{ptr(0.30), ptr(0.70)}
	m.OneHourPriceChange = ptr(-0.06)
	related := []Market{sibling("s1", 0.25), sibling("s2", 0.25)}

	signal, _ := ScoreMarket(m, freshBook(testNow), related, testNow, 1)

	if len(signal.Rationale) < 3 {
		t.Fatalf("Strong signal should have several rationale lines, got %v", signal.Rationale)
	}
	if !strings.Contains(signal.Rationale[0], "Fair-value proxy") {
		t.Errorf("Edge statement should come first, got %q", signal.Rationale[0])
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
