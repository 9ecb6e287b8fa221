package scan

import (
	"context"
	"strconv"
	"strings"

	"github.com/k-dang/finny/pkg/polymarket/clob"
	"github.com/k-dang/finny/pkg/polymarket/gamma"
)

// MarketFromGamma normalizes a Gamma listing record into the engine's
// market snapshot.
func MarketFromGamma(gm gamma.Market) Market {
	return Market{
		ID:                 gm.ID,
		Slug:               gm.Slug,
		Question:           gm.Question,
		EventID:            gm.EventGroupID(),
		Outcomes:           gm.Outcomes(),
		OutcomePrices:      gm.OutcomePrices(),
		Active:             gm.Active,
		Closed:             gm.Closed,
		AcceptingOrders:    gm.AcceptingOrders,
		Volume:             jsonFloat(gm.Volume),
		Volume24hr:         jsonFloat(gm.Volume24hr),
		Liquidity:          jsonFloat(gm.Liquidity),
		BestBid:            jsonFloat(gm.BestBid),
		BestAsk:            jsonFloat(gm.BestAsk),
		Spread:             jsonFloat(gm.Spread),
		OneHourPriceChange: jsonFloat(gm.OneHourPriceChange),
		OneDayPriceChange:  jsonFloat(gm.OneDayPriceChange),
		ClobTokenIDs:       gm.ClobTokenIDs(),
	}
}

func jsonFloat(v *gamma.JSONFloat) *float64 {
	if v == nil {
		return nil
	}
	return ptr(v.Float64())
}

// RawOrderbookFromSummary converts a CLOB order-book payload into the
// engine's raw ladder form. Unparseable levels are skipped.
func RawOrderbookFromSummary(s *clob.OrderBookSummary) RawOrderbook {
	raw := RawOrderbook{
		TokenID:   s.TokenID,
		Timestamp: s.Timestamp,
	}
	raw.Bids = parseRawLevels(s.Bids)
	raw.Asks = parseRawLevels(s.Asks)
	return raw
}

func parseRawLevels(levels []clob.PriceLevel) []PriceLevel {
	out := make([]PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(lvl.Size, 64)
		if err != nil {
			continue
		}
		out = append(out, PriceLevel{Price: price, Size: size})
	}
	return out
}

// scoreTokenID picks the representative outcome token for scoring: the one
// labeled YES, or the first available.
func scoreTokenID(m Market) string {
	if len(m.ClobTokenIDs) == 0 {
		return ""
	}
	for i, o := range m.Outcomes {
		if strings.EqualFold(strings.TrimSpace(o), "YES") && i < len(m.ClobTokenIDs) {
			return m.ClobTokenIDs[i]
		}
	}
	return m.ClobTokenIDs[0]
}

// GammaSource adapts a Gamma client to the scanner's MarketLister.
type GammaSource struct {
	Client *gamma.Client
}

// ListScannable returns normalized tradeable markets, capped at maxMarkets.
func (s *GammaSource) ListScannable(ctx context.Context, maxMarkets int) ([]Market, error) {
	raw, err := s.Client.ListTradeableMarkets(ctx, maxMarkets)
	if err != nil {
		return nil, err
	}
	markets := make([]Market, 0, len(raw))
	for _, gm := range raw {
		markets = append(markets, MarketFromGamma(gm))
	}
	return markets, nil
}

// ClobSource adapts a CLOB client to the scanner's BookFetcher.
type ClobSource struct {
	Client *clob.Client
}

// FetchBook fetches and converts the order book for one token.
func (s *ClobSource) FetchBook(ctx context.Context, tokenID string) (RawOrderbook, error) {
	summary, err := s.Client.GetOrderBook(ctx, tokenID)
	if err != nil {
		return RawOrderbook{}, err
	}
	return RawOrderbookFromSummary(summary), nil
}
