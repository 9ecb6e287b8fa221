package polymarket

import (
	"context"
	"fmt"
	"time"

	"github.com/k-dang/finny/core"
	"github.com/k-dang/finny/pkg/polymarket/book"
	"github.com/k-dang/finny/pkg/polymarket/clob"
)

// GetOrderBookTool fetches the current order book for an outcome token.
type GetOrderBookTool struct {
	client *clob.Client
}

type GetOrderBookInput struct {
	TokenID string `json:"token_id"` // outcome token ID
	Depth   int    `json:"depth"`    // levels per side (default 5)
}

type GetOrderBookOutput struct {
	TokenID   string      `json:"token_id"`
	BestBid   *PriceSize  `json:"best_bid,omitempty"`
	BestAsk   *PriceSize  `json:"best_ask,omitempty"`
	Midpoint  string      `json:"midpoint,omitempty"`
	SpreadBps string      `json:"spread_bps,omitempty"`
	BidDepth  int         `json:"bid_depth"`
	AskDepth  int         `json:"ask_depth"`
	Bids      []PriceSize `json:"bids"`
	Asks      []PriceSize `json:"asks"`
}

type PriceSize struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

func NewGetOrderBookTool(client *clob.Client) *GetOrderBookTool {
	return &GetOrderBookTool{client: client}
}

func (t *GetOrderBookTool) Name() string {
	return "polymarket_get_orderbook"
}

func (t *GetOrderBookTool) Description() string {
	return "Fetch the live order book for a Polymarket outcome token: best levels, midpoint, spread, and depth."
}

func (t *GetOrderBookTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"token_id": {"type": "string", "description": "Outcome token ID"},
			"depth": {"type": "integer", "description": "Price levels per side (default 5)"}
		},
		"required": ["token_id"]
	}`)
}

func (t *GetOrderBookTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input GetOrderBookInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}
	if input.TokenID == "" {
		return errorResult(fmt.Errorf("token_id is required"))
	}
	if input.Depth <= 0 {
		input.Depth = 5
	}

	ctx, cancel := context.WithTimeout(tc.Ctx, 30*time.Second)
	defer cancel()

	summary, err := t.client.GetOrderBook(ctx, input.TokenID)
	if err != nil {
		return errorResult(fmt.Errorf("get orderbook failed: %w", err))
	}

	ladder := book.FromSummary(summary)
	output := GetOrderBookOutput{
		TokenID:  input.TokenID,
		BidDepth: len(ladder.Bids),
		AskDepth: len(ladder.Asks),
		Bids:     ladderLevels(ladder.Bids, input.Depth),
		Asks:     ladderLevels(ladder.Asks, input.Depth),
	}

	if bid, ok := ladder.BestBid(); ok {
		output.BestBid = &PriceSize{Price: bid.Price.String(), Size: bid.Size.String()}
	}
	if ask, ok := ladder.BestAsk(); ok {
		output.BestAsk = &PriceSize{Price: ask.Price.String(), Size: ask.Size.String()}
	}
	if mid, ok := ladder.Midpoint(); ok {
		output.Midpoint = mid.String()
	}
	if bps, ok := ladder.SpreadBps(); ok {
		output.SpreadBps = bps.Round(1).String()
	}

	return &core.ToolExecResult{Status: core.ToolComplete, Output: output}
}

func ladderLevels(levels []book.PriceLevel, depth int) []PriceSize {
	if depth > len(levels) {
		depth = len(levels)
	}
	out := make([]PriceSize, 0, depth)
	for _, lvl := range levels[:depth] {
		out = append(out, PriceSize{Price: lvl.Price.String(), Size: lvl.Size.String()})
	}
	return out
}

// GetPriceHistoryTool fetches recent price history for an outcome token.
type GetPriceHistoryTool struct {
	client *clob.Client
}

type GetPriceHistoryInput struct {
	TokenID  string `json:"token_id"`
	Hours    int    `json:"hours"`    // lookback window (default 24)
	Fidelity int    `json:"fidelity"` // sample interval in minutes (default 60)
}

type GetPriceHistoryOutput struct {
	TokenID string       `json:"token_id"`
	Points  []PricePoint `json:"points"`
}

type PricePoint struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

func NewGetPriceHistoryTool(client *clob.Client) *GetPriceHistoryTool {
	return &GetPriceHistoryTool{client: client}
}

func (t *GetPriceHistoryTool) Name() string {
	return "polymarket_get_price_history"
}

func (t *GetPriceHistoryTool) Description() string {
	return "Fetch recent price history for a Polymarket outcome token."
}

func (t *GetPriceHistoryTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"token_id": {"type": "string", "description": "Outcome token ID"},
			"hours": {"type": "integer", "description": "Lookback window in hours (default 24)"},
			"fidelity": {"type": "integer", "description": "Sample interval in minutes (default 60)"}
		},
		"required": ["token_id"]
	}`)
}

func (t *GetPriceHistoryTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input GetPriceHistoryInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}
	if input.TokenID == "" {
		return errorResult(fmt.Errorf("token_id is required"))
	}
	if input.Hours <= 0 {
		input.Hours = 24
	}
	if input.Fidelity <= 0 {
		input.Fidelity = 60
	}

	ctx, cancel := context.WithTimeout(tc.Ctx, 30*time.Second)
	defer cancel()

	end := time.Now()
	start := end.Add(-time.Duration(input.Hours) * time.Hour)
	points, err := t.client.GetPriceHistory(ctx, input.TokenID, start.Unix(), end.Unix(), input.Fidelity)
	if err != nil {
		return errorResult(fmt.Errorf("get price history failed: %w", err))
	}

	output := GetPriceHistoryOutput{TokenID: input.TokenID}
	for _, p := range points {
		output.Points = append(output.Points, PricePoint{
			Time:  time.Unix(p.Timestamp, 0).UTC().Format(time.RFC3339),
			Price: p.Price,
		})
	}

	return &core.ToolExecResult{Status: core.ToolComplete, Output: output}
}

// RegisterClobTools registers the order-book tools.
func RegisterClobTools(registry *core.ToolRegistry, client *clob.Client) {
	policy := core.ReadOnlyPolicy("polymarket-clob")
	registry.Register(NewGetOrderBookTool(client), policy)
	registry.Register(NewGetPriceHistoryTool(client), policy)
}
