// Package book provides immutable order-book ladder inspection for
// Polymarket outcome tokens, with exact decimal arithmetic for display and
// depth analysis.
package book

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/k-dang/finny/pkg/polymarket/clob"
)

// PriceLevel is an aggregated price level in the ladder.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Ladder is a point-in-time view of one token's order book with bids sorted
// best-first (descending) and asks sorted best-first (ascending). Ladders
// are never mutated after construction.
type Ladder struct {
	TokenID   string
	Market    string
	Timestamp string
	Bids      []PriceLevel
	Asks      []PriceLevel
}

// FromSummary builds a Ladder from a CLOB order-book payload. Levels that
// fail to parse are skipped.
func FromSummary(s *clob.OrderBookSummary) *Ladder {
	l := &Ladder{
		TokenID:   s.TokenID,
		Market:    s.Market,
		Timestamp: s.Timestamp,
		Bids:      parseLevels(s.Bids),
		Asks:      parseLevels(s.Asks),
	}

	sort.Slice(l.Bids, func(i, j int) bool {
		return l.Bids[i].Price.GreaterThan(l.Bids[j].Price)
	})
	sort.Slice(l.Asks, func(i, j int) bool {
		return l.Asks[i].Price.LessThan(l.Asks[j].Price)
	})

	return l
}

func parseLevels(raw []clob.PriceLevel) []PriceLevel {
	levels := make([]PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err := decimal.NewFromString(lvl.Price)
		if err != nil {
			continue
		}
		size, err := decimal.NewFromString(lvl.Size)
		if err != nil {
			continue
		}
		levels = append(levels, PriceLevel{Price: price, Size: size})
	}
	return levels
}

// BestBid returns the highest bid, or false when the bid side is empty.
func (l *Ladder) BestBid() (PriceLevel, bool) {
	if len(l.Bids) == 0 {
		return PriceLevel{}, false
	}
	return l.Bids[0], true
}

// BestAsk returns the lowest ask, or false when the ask side is empty.
func (l *Ladder) BestAsk() (PriceLevel, bool) {
	if len(l.Asks) == 0 {
		return PriceLevel{}, false
	}
	return l.Asks[0], true
}

// Midpoint returns the bid/ask midpoint, or false when either side is empty.
func (l *Ladder) Midpoint() (decimal.Decimal, bool) {
	bid, okB := l.BestBid()
	ask, okA := l.BestAsk()
	if !okB || !okA {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// SpreadBps returns the spread in basis points relative to the midpoint, or
// false when no midpoint exists.
func (l *Ladder) SpreadBps() (decimal.Decimal, bool) {
	mid, ok := l.Midpoint()
	if !ok || mid.IsZero() {
		return decimal.Zero, false
	}
	bid, _ := l.BestBid()
	ask, _ := l.BestAsk()
	return ask.Price.Sub(bid.Price).Div(mid).Mul(decimal.NewFromInt(10000)), true
}

// TotalBidSize returns the total size resting on the bid side.
func (l *Ladder) TotalBidSize() decimal.Decimal {
	return totalSize(l.Bids)
}

// TotalAskSize returns the total size resting on the ask side.
func (l *Ladder) TotalAskSize() decimal.Decimal {
	return totalSize(l.Asks)
}

func totalSize(levels []PriceLevel) decimal.Decimal {
	total := decimal.Zero
	for _, lvl := range levels {
		total = total.Add(lvl.Size)
	}
	return total
}

// Render returns a human-readable view of the ladder down to the given
// depth per side.
func (l *Ladder) Render(depth int) string {
	if depth <= 0 {
		depth = 5
	}

	var b strings.Builder
	fmt.Fprintf(&b, "token %s\n", l.TokenID)

	askDepth := min(depth, len(l.Asks))
	for i := askDepth - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "  ask  %8s @ %s\n", l.Asks[i].Size, l.Asks[i].Price)
	}

	if bps, ok := l.SpreadBps(); ok {
		fmt.Fprintf(&b, "  ---- spread %s bps ----\n", bps.Round(1))
	} else {
		b.WriteString("  ---- one-sided book ----\n")
	}

	bidDepth := min(depth, len(l.Bids))
	for i := 0; i < bidDepth; i++ {
		fmt.Fprintf(&b, "  bid  %8s @ %s\n", l.Bids[i].Size, l.Bids[i].Price)
	}

	return b.String()
}

func (l *Ladder) String() string {
	mid := "n/a"
	if m, ok := l.Midpoint(); ok {
		mid = m.String()
	}
	return fmt.Sprintf("Ladder{token=%s, bids=%d, asks=%d, mid=%s}",
		l.TokenID, len(l.Bids), len(l.Asks), mid)
}
