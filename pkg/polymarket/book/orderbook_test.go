package book

import (
	"strings"
	"testing"

	"github.com/k-dang/finny/pkg/polymarket/clob"
)

func sampleSummary() *clob.OrderBookSummary {
	return &clob.OrderBookSummary{
		Market:    "0xabc",
		TokenID:   "token1",
		Timestamp: "1700000000000",
		Bids: []clob.PriceLevel{
			{Price: "0.40", Size: "200"},
			{Price: "0.42", Size: "100"},
			{Price: "0.41", Size: "150"},
		},
		Asks: []clob.PriceLevel{
			{Price: "0.48", Size: "80"},
			{Price: "0.46", Size: "120"},
		},
	}
}

func TestFromSummarySortsSides(t *testing.T) {
	l := FromSummary(sampleSummary())

	if len(l.Bids) != 3 || len(l.Asks) != 2 {
		t.Fatalf("Wrong level counts: %d bids, %d asks", len(l.Bids), len(l.Asks))
	}
	if l.Bids[0].Price.String() != "0.42" {
		t.Errorf("Bids should sort descending, got %s first", l.Bids[0].Price)
	}
	if l.Asks[0].Price.String() != "0.46" {
		t.Errorf("Asks should sort ascending, got %s first", l.Asks[0].Price)
	}
}

func TestFromSummarySkipsBadLevels(t *testing.T) {
	s := sampleSummary()
	s.Bids = append(s.Bids, clob.PriceLevel{Price: "not-a-number", Size: "10"})
	s.Asks = append(s.Asks, clob.PriceLevel{Price: "0.47", Size: ""})

	l := FromSummary(s)
	if len(l.Bids) != 3 {
		t.Errorf("Bad bid should be skipped, got %d", len(l.Bids))
	}
	if len(l.Asks) != 2 {
		t.Errorf("Bad ask should be skipped, got %d", len(l.Asks))
	}
}

func TestBestLevels(t *testing.T) {
	l := FromSummary(sampleSummary())

	bid, ok := l.BestBid()
	if !ok || bid.Price.String() != "0.42" {
		t.Errorf("Wrong best bid: %v", bid.Price)
	}
	ask, ok := l.BestAsk()
	if !ok || ask.Price.String() != "0.46" {
		t.Errorf("Wrong best ask: %v", ask.Price)
	}

	empty := FromSummary(&clob.OrderBookSummary{})
	if _, ok := empty.BestBid(); ok {
		t.Error("Empty book should have no best bid")
	}
	if _, ok := empty.BestAsk(); ok {
		t.Error("Empty book should have no best ask")
	}
}

func TestMidpointAndSpread(t *testing.T) {
	l := FromSummary(sampleSummary())

	mid, ok := l.Midpoint()
	if !ok || mid.String() != "0.44" {
		t.Errorf("Wrong midpoint: %v", mid)
	}

	bps, ok := l.SpreadBps()
	if !ok {
		t.Fatal("Spread should be computable")
	}
	// (0.46 - 0.42) / 0.44 * 10000
	if bps.Round(2).String() != "909.09" {
		t.Errorf("Wrong spread bps: %s", bps)
	}

	oneSided := FromSummary(&clob.OrderBookSummary{
		Bids: []clob.PriceLevel{{Price: "0.42", Size: "10"}},
	})
	if _, ok := oneSided.Midpoint(); ok {
		t.Error("One-sided book should have no midpoint")
	}
	if _, ok := oneSided.SpreadBps(); ok {
		t.Error("One-sided book should have no spread")
	}
}

func TestTotalSizes(t *testing.T) {
	l := FromSummary(sampleSummary())

	if l.TotalBidSize().String() != "450" {
		t.Errorf("Wrong total bid size: %s", l.TotalBidSize())
	}
	if l.TotalAskSize().String() != "200" {
		t.Errorf("Wrong total ask size: %s", l.TotalAskSize())
	}
}

func TestRender(t *testing.T) {
	out := FromSummary(sampleSummary()).Render(5)

	if !strings.Contains(out, "token token1") {
		t.Errorf("Render should name the token:\n%s", out)
	}
	if !strings.Contains(out, "spread") {
		t.Errorf("Render should show the spread:\n%s", out)
	}
	// Best ask should sit directly above the spread line.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var spreadIdx int
	for i, line := range lines {
		if strings.Contains(line, "spread") {
			spreadIdx = i
		}
	}
	if !strings.Contains(lines[spreadIdx-1], "0.46") {
		t.Errorf("Best ask should be adjacent to the spread line:\n%s", out)
	}
	if !strings.Contains(lines[spreadIdx+1], "0.42") {
		t.Errorf("Best bid should be adjacent to the spread line:\n%s", out)
	}

	oneSided := FromSummary(&clob.OrderBookSummary{
		Bids: []clob.PriceLevel{{Price: "0.42", Size: "10"}},
	})
	if !strings.Contains(oneSided.Render(5), "one-sided") {
		t.Error("One-sided book should render a marker line")
	}
}
