package scan

import "strings"

// outcomeProb returns the market's last-known YES probability: the outcome
// price at the index of the outcome labeled "YES" (case-insensitive,
// trimmed), falling back to index 0, or nil when no outcome prices exist.
func outcomeProb(m Market) *float64 {
	if len(m.OutcomePrices) == 0 {
		return nil
	}
	idx := 0
	for i, o := range m.Outcomes {
		if strings.EqualFold(strings.TrimSpace(o), "YES") {
			idx = i
			break
		}
	}
	if idx >= len(m.OutcomePrices) {
		return nil
	}
	return m.OutcomePrices[idx]
}

// quoteMid returns the clamped midpoint of the market's own quoted best
// bid/ask, or nil when either side is missing.
func quoteMid(m Market) *float64 {
	if m.BestBid == nil || m.BestAsk == nil {
		return nil
	}
	return ptr(clampProb((*m.BestBid + *m.BestAsk) / 2))
}

// resolveMarketProb blends order-book midpoint, quoted bid/ask midpoint, and
// outcome-token price into a single market-implied YES probability.
// Precedence: order book over quote over outcome price. Falls back to 0.5
// (maximum uncertainty) when nothing is known.
func resolveMarketProb(m Market, ob *OrderbookSnapshot) float64 {
	op := outcomeProb(m)
	qm := quoteMid(m)

	var prob float64
	switch {
	case ob != nil && ob.Midpoint != nil:
		secondary := coalesce(qm, op, ob.Midpoint)
		prob = 0.55**ob.Midpoint + 0.45**secondary
	case qm != nil:
		secondary := coalesce(op, qm)
		prob = 0.70**qm + 0.30**secondary
	case op != nil:
		prob = *op
	default:
		prob = 0.5
	}
	return clampProb(prob)
}

// resolveSpreadBps resolves the effective spread in basis points.
// Precedence: order-book spread, then the market's raw fractional spread
// field, then a spread derived from the market's own quote.
func resolveSpreadBps(m Market, ob *OrderbookSnapshot) *float64 {
	if ob != nil && ob.SpreadBps != nil {
		return ptr(floorZero(*ob.SpreadBps))
	}
	if m.Spread != nil {
		return ptr(floorZero(*m.Spread * 10000))
	}
	if m.BestBid != nil && m.BestAsk != nil {
		mid := (*m.BestBid + *m.BestAsk) / 2
		if mid > 0 {
			return ptr(floorZero((*m.BestAsk - *m.BestBid) / mid * 10000))
		}
	}
	return nil
}

// coalesce returns the first non-nil value.
func coalesce(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
