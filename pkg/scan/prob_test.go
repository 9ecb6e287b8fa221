package scan

import (
	"math"
	"testing"
)

func TestOutcomeProb(t *testing.T) {
	m := Market{
		Outcomes:      []string{"No", "yes "},
		OutcomePrices: []*float64{ptr(0.7), ptr(0.3)},
	}
	if p := outcomeProb(m); p == nil || *p != 0.3 {
		t.Errorf("Should match YES label case-insensitively, got %v", p)
	}

	// No YES label: fall back to index 0.
	m = Market{
		Outcomes:      []string{"Trump", "Biden"},
		OutcomePrices: []*float64{ptr(0.55), ptr(0.45)},
	}
	if p := outcomeProb(m); p == nil || *p != 0.55 {
		t.Errorf("Should fall back to index 0, got %v", p)
	}

	// No prices at all.
	if p := outcomeProb(Market{Outcomes: []string{"Yes", "No"}}); p != nil {
		t.Errorf("No prices should give nil, got %v", p)
	}
}

func TestResolveMarketProbOrderbookBlend(t *testing.T) {
	m := Market{
		Outcomes:      []string{"Yes", "No"},
		OutcomePrices: []*float64{ptr(0.40), ptr(0.60)},
		BestBid:       ptr(0.44),
		BestAsk:       ptr(0.48),
	}
	ob := &OrderbookSnapshot{Midpoint: ptr(0.50)}

	// 0.55*0.50 + 0.45*quoteMid(0.46)
	want := 0.55*0.50 + 0.45*0.46
	got := resolveMarketProb(m, ob)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Wrong blend: got %f, want %f", got, want)
	}
}

func TestResolveMarketProbOrderbookFallsBackToOutcome(t *testing.T) {
	m := Market{
		Outcomes:      []string{"Yes", "No"},
		OutcomePrices: []*float64{ptr(0.40), ptr(0.60)},
	}
	ob := &OrderbookSnapshot{Midpoint: ptr(0.50)}

	want := 0.55*0.50 + 0.45*0.40
	got := resolveMarketProb(m, ob)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Wrong blend: got %f, want %f", got, want)
	}

	// No quote, no outcome price: blend collapses to the midpoint itself.
	got = resolveMarketProb(Market{}, ob)
	if math.Abs(got-0.50) > 1e-9 {
		t.Errorf("Self blend should equal midpoint, got %f", got)
	}
}

func TestResolveMarketProbQuoteBlend(t *testing.T) {
	m := Market{
		Outcomes:      []string{"Yes", "No"},
		OutcomePrices: []*float64{ptr(0.40), ptr(0.60)},
		BestBid:       ptr(0.44),
		BestAsk:       ptr(0.48),
	}

	want := 0.70*0.46 + 0.30*0.40
	got := resolveMarketProb(m, nil)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Wrong quote blend: got %f, want %f", got, want)
	}
}

func TestResolveMarketProbOutcomeOnly(t *testing.T) {
	m := Market{
		Outcomes:      []string{"Yes", "No"},
		OutcomePrices: []*float64{ptr(0.37), ptr(0.63)},
	}
	if got := resolveMarketProb(m, nil); got != 0.37 {
		t.Errorf("Should use outcome price directly, got %f", got)
	}
}

func TestResolveMarketProbDefaultsToHalf(t *testing.T) {
	if got := resolveMarketProb(Market{}, nil); got != 0.5 {
		t.Errorf("Nothing known should default to 0.5, got %f", got)
	}
}

func TestResolveMarketProbClamped(t *testing.T) {
	m := Market{
		Outcomes:      []string{"Yes"},
		OutcomePrices: []*float64{ptr(0.999)},
	}
	if got := resolveMarketProb(m, nil); got != 0.99 {
		t.Errorf("Probability should clamp to 0.99, got %f", got)
	}

	m.OutcomePrices = []*float64{ptr(0.001)}
	if got := resolveMarketProb(m, nil); got != 0.01 {
		t.Errorf("Probability should clamp to 0.01, got %f", got)
	}
}

func TestResolveSpreadBpsPrecedence(t *testing.T) {
	m := Market{
		Spread:  ptr(0.03),
		BestBid: ptr(0.44),
		BestAsk: ptr(0.48),
	}
	ob := &OrderbookSnapshot{SpreadBps: ptr(120.0)}

	// Orderbook wins.
	if got := resolveSpreadBps(m, ob); got == nil || *got != 120 {
		t.Errorf("Orderbook spread should win, got %v", got)
	}

	// Then the raw spread field, scaled to bps.
	if got := resolveSpreadBps(m, nil); got == nil || *got != 300 {
		t.Errorf("Raw spread should scale to 300 bps, got %v", got)
	}

	// Then derived from the market quote.
	m.Spread = nil
	got := resolveSpreadBps(m, nil)
	want := (0.48 - 0.44) / 0.46 * 10000
	if got == nil || math.Abs(*got-want) > 1e-9 {
		t.Errorf("Derived spread wrong: got %v, want %f", got, want)
	}

	// Nothing available.
	if got := resolveSpreadBps(Market{}, nil); got != nil {
		t.Errorf("No data should give nil spread, got %v", got)
	}
}

func TestResolveSpreadBpsFloorsNegative(t *testing.T) {
	m := Market{Spread: ptr(-0.01)}
	if got := resolveSpreadBps(m, nil); got == nil || *got != 0 {
		t.Errorf("Negative spread should floor at 0, got %v", got)
	}
}
