package scan

import (
	"strconv"
	"time"
)

// timeLayouts are tried in order when normalizing a non-numeric raw
// timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeOrderbook converts a raw bid/ask ladder into a canonical snapshot.
// It is tolerant of malformed upstream data: empty sides yield nil prices and
// an unparseable timestamp is passed through unchanged.
func NormalizeOrderbook(raw RawOrderbook) OrderbookSnapshot {
	snap := OrderbookSnapshot{
		TokenID:   raw.TokenID,
		Timestamp: normalizeTimestamp(raw.Timestamp),
	}

	for _, lvl := range raw.Bids {
		if snap.BestBid == nil || lvl.Price > *snap.BestBid {
			snap.BestBid = ptr(lvl.Price)
		}
	}
	for _, lvl := range raw.Asks {
		if snap.BestAsk == nil || lvl.Price < *snap.BestAsk {
			snap.BestAsk = ptr(lvl.Price)
		}
	}

	if snap.BestBid != nil && snap.BestAsk != nil {
		mid := clampProb((*snap.BestBid + *snap.BestAsk) / 2)
		snap.Midpoint = ptr(mid)
		bps := (*snap.BestAsk - *snap.BestBid) / mid * 10000
		if bps < 0 {
			bps = 0
		}
		snap.SpreadBps = ptr(bps)
	}

	return snap
}

// normalizeTimestamp maps a raw upstream timestamp to an ISO instant when
// possible. Positive numeric values are interpreted as epoch milliseconds;
// anything else is tried against known date layouts and passed through
// unchanged on failure.
func normalizeTimestamp(raw string) string {
	if raw == "" {
		return raw
	}
	if ms, err := strconv.ParseFloat(raw, 64); err == nil {
		if ms > 0 {
			return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
		}
		return raw
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(time.RFC3339Nano)
		}
	}
	return raw
}

// parseInstant parses an ISO instant or positive epoch-millis string.
// Returns nil when the value cannot be interpreted as a time.
func parseInstant(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	if ms, err := strconv.ParseFloat(raw, 64); err == nil && ms > 0 {
		t := time.UnixMilli(int64(ms)).UTC()
		return &t
	}
	return nil
}
