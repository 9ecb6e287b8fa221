package scan

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestNormalizeOrderbook(t *testing.T) {
	snap := NormalizeOrderbook(RawOrderbook{
		TokenID: "token1",
		Bids:    []PriceLevel{{Price: 0.42, Size: 10}},
		Asks:    []PriceLevel{{Price: 0.46, Size: 10}},
	})

	if snap.TokenID != "token1" {
		t.Errorf("Wrong token ID: %s", snap.TokenID)
	}
	if snap.BestBid == nil || *snap.BestBid != 0.42 {
		t.Errorf("Wrong best bid: %v", snap.BestBid)
	}
	if snap.BestAsk == nil || *snap.BestAsk != 0.46 {
		t.Errorf("Wrong best ask: %v", snap.BestAsk)
	}
	if snap.Midpoint == nil || math.Abs(*snap.Midpoint-0.44) > 1e-9 {
		t.Errorf("Wrong midpoint: %v", snap.Midpoint)
	}
	if snap.SpreadBps == nil || math.Abs(*snap.SpreadBps-909.0909) > 0.01 {
		t.Errorf("Wrong spread bps: %v", snap.SpreadBps)
	}
}

func TestNormalizeOrderbookPicksBestLevels(t *testing.T) {
	snap := NormalizeOrderbook(RawOrderbook{
		Bids: []PriceLevel{
			{Price: 0.40, Size: 5},
			{Price: 0.45, Size: 5}, // best bid
			{Price: 0.42, Size: 5},
		},
		Asks: []PriceLevel{
			{Price: 0.50, Size: 5},
			{Price: 0.47, Size: 5}, // best ask
		},
	})

	if *snap.BestBid != 0.45 {
		t.Errorf("Best bid should be max of bids, got %v", *snap.BestBid)
	}
	if *snap.BestAsk != 0.47 {
		t.Errorf("Best ask should be min of asks, got %v", *snap.BestAsk)
	}
}

func TestNormalizeOrderbookEmptySides(t *testing.T) {
	snap := NormalizeOrderbook(RawOrderbook{
		Bids: []PriceLevel{{Price: 0.42, Size: 10}},
	})

	if snap.BestBid == nil {
		t.Error("Best bid should be present")
	}
	if snap.BestAsk != nil {
		t.Error("Best ask should be nil for empty ask side")
	}
	if snap.Midpoint != nil {
		t.Error("Midpoint should be nil for one-sided book")
	}
	if snap.SpreadBps != nil {
		t.Error("Spread should be nil for one-sided book")
	}

	empty := NormalizeOrderbook(RawOrderbook{})
	if empty.BestBid != nil || empty.BestAsk != nil {
		t.Error("Empty book should have nil prices")
	}
}

func TestNormalizeOrderbookClampsMidpoint(t *testing.T) {
	snap := NormalizeOrderbook(RawOrderbook{
		Bids: []PriceLevel{{Price: 0.995, Size: 1}},
		Asks: []PriceLevel{{Price: 0.999, Size: 1}},
	})

	if *snap.Midpoint != 0.99 {
		t.Errorf("Midpoint should clamp to 0.99, got %v", *snap.Midpoint)
	}
}

func TestNormalizeOrderbookCrossedBookFloorsSpread(t *testing.T) {
	snap := NormalizeOrderbook(RawOrderbook{
		Bids: []PriceLevel{{Price: 0.50, Size: 1}},
		Asks: []PriceLevel{{Price: 0.48, Size: 1}},
	})

	if snap.SpreadBps == nil || *snap.SpreadBps != 0 {
		t.Errorf("Crossed book spread should floor at 0, got %v", snap.SpreadBps)
	}
}

func TestNormalizeTimestampEpochMillis(t *testing.T) {
	got := normalizeTimestamp("1700000000000")

	parsed, err := time.Parse(time.RFC3339Nano, got)
	if err != nil {
		t.Fatalf("Result should be an ISO instant: %v", err)
	}
	if parsed.UnixMilli() != 1700000000000 {
		t.Errorf("Wrong instant: %s", got)
	}
}

func TestNormalizeTimestampISO(t *testing.T) {
	got := normalizeTimestamp("2024-05-01T10:30:00Z")
	if !strings.HasPrefix(got, "2024-05-01T10:30:00") {
		t.Errorf("ISO timestamp should survive normalization: %s", got)
	}
}

func TestNormalizeTimestampGarbagePassesThrough(t *testing.T) {
	for _, raw := range []string{"not-a-time", "-5", ""} {
		if got := normalizeTimestamp(raw); got != raw {
			t.Errorf("Malformed timestamp %q should pass through, got %q", raw, got)
		}
	}
}

func TestParseInstant(t *testing.T) {
	if parseInstant("2024-05-01T10:30:00Z") == nil {
		t.Error("RFC3339 should parse")
	}
	if parseInstant("1700000000000") == nil {
		t.Error("Epoch millis should parse")
	}
	if parseInstant("garbage") != nil {
		t.Error("Garbage should not parse")
	}
	if parseInstant("") != nil {
		t.Error("Empty should not parse")
	}
}
