// Package alpaca provides agent tools for Alpaca market data: stock quotes,
// snapshots, and option chains.
package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/k-dang/finny/core"
	"github.com/k-dang/finny/pkg/alpaca"
)

// GetStockQuoteTool fetches the latest snapshot for a stock symbol.
type GetStockQuoteTool struct {
	client *alpaca.Client
}

type GetStockQuoteInput struct {
	Symbol string `json:"symbol"`
}

type GetStockQuoteOutput struct {
	Symbol    string   `json:"symbol"`
	BidPrice  float64  `json:"bid_price"`
	AskPrice  float64  `json:"ask_price"`
	LastPrice *float64 `json:"last_price,omitempty"`
	DayOpen   *float64 `json:"day_open,omitempty"`
	DayHigh   *float64 `json:"day_high,omitempty"`
	DayLow    *float64 `json:"day_low,omitempty"`
	PrevClose *float64 `json:"prev_close,omitempty"`
}

func NewGetStockQuoteTool(client *alpaca.Client) *GetStockQuoteTool {
	return &GetStockQuoteTool{client: client}
}

func (t *GetStockQuoteTool) Name() string {
	return "alpaca_get_stock_quote"
}

func (t *GetStockQuoteTool) Description() string {
	return "Fetch the latest quote and daily bar for a US stock symbol."
}

func (t *GetStockQuoteTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"symbol": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"}
		},
		"required": ["symbol"]
	}`)
}

func (t *GetStockQuoteTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input GetStockQuoteInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if symbol == "" {
		return errorResult(fmt.Errorf("symbol is required"))
	}

	ctx, cancel := context.WithTimeout(tc.Ctx, 30*time.Second)
	defer cancel()

	snap, err := t.client.GetSnapshot(ctx, symbol)
	if err != nil {
		return errorResult(fmt.Errorf("get snapshot failed: %w", err))
	}

	output := GetStockQuoteOutput{Symbol: symbol}
	if snap.LatestQuote != nil {
		output.BidPrice = snap.LatestQuote.BidPrice
		output.AskPrice = snap.LatestQuote.AskPrice
	}
	if snap.LatestTrade != nil {
		output.LastPrice = &snap.LatestTrade.Price
	}
	if snap.DailyBar != nil {
		output.DayOpen = &snap.DailyBar.Open
		output.DayHigh = &snap.DailyBar.High
		output.DayLow = &snap.DailyBar.Low
	}
	if snap.PrevDailyBar != nil {
		output.PrevClose = &snap.PrevDailyBar.Close
	}

	return &core.ToolExecResult{Status: core.ToolComplete, Output: output}
}

// GetOptionChainTool fetches option contract snapshots for an underlying.
type GetOptionChainTool struct {
	client *alpaca.Client
}

type GetOptionChainInput struct {
	Underlying     string  `json:"underlying"`
	Type           string  `json:"type"`             // "call" or "put"
	StrikeGte      float64 `json:"strike_gte"`
	StrikeLte      float64 `json:"strike_lte"`
	ExpirationDate string  `json:"expiration_date"` // YYYY-MM-DD
	Limit          int     `json:"limit"`
}

type GetOptionChainOutput struct {
	Underlying string           `json:"underlying"`
	Contracts  []OptionContract `json:"contracts"`
	Count      int              `json:"count"`
}

type OptionContract struct {
	Symbol            string   `json:"symbol"`
	BidPrice          *float64 `json:"bid_price,omitempty"`
	AskPrice          *float64 `json:"ask_price,omitempty"`
	ImpliedVolatility float64  `json:"implied_volatility"`
	Delta             *float64 `json:"delta,omitempty"`
}

func NewGetOptionChainTool(client *alpaca.Client) *GetOptionChainTool {
	return &GetOptionChainTool{client: client}
}

func (t *GetOptionChainTool) Name() string {
	return "alpaca_get_option_chain"
}

func (t *GetOptionChainTool) Description() string {
	return "Fetch option chain snapshots for an underlying symbol, with strike and expiry filters."
}

func (t *GetOptionChainTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"underlying": {"type": "string", "description": "Underlying ticker symbol, e.g. SPY"},
			"type": {"type": "string", "enum": ["call", "put"], "description": "Contract type filter"},
			"strike_gte": {"type": "number", "description": "Minimum strike price"},
			"strike_lte": {"type": "number", "description": "Maximum strike price"},
			"expiration_date": {"type": "string", "description": "Expiration date filter (YYYY-MM-DD)"},
			"limit": {"type": "integer", "description": "Maximum contracts to return (default 50)"}
		},
		"required": ["underlying"]
	}`)
}

func (t *GetOptionChainTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input GetOptionChainInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}
	underlying := strings.ToUpper(strings.TrimSpace(input.Underlying))
	if underlying == "" {
		return errorResult(fmt.Errorf("underlying is required"))
	}
	if input.Limit <= 0 {
		input.Limit = 50
	}

	ctx, cancel := context.WithTimeout(tc.Ctx, 30*time.Second)
	defer cancel()

	chain, err := t.client.GetOptionChain(ctx, underlying, &alpaca.OptionChainFilter{
		Type:           input.Type,
		StrikePriceGte: input.StrikeGte,
		StrikePriceLte: input.StrikeLte,
		ExpirationDate: input.ExpirationDate,
		Limit:          input.Limit,
	})
	if err != nil {
		return errorResult(fmt.Errorf("get option chain failed: %w", err))
	}

	output := GetOptionChainOutput{Underlying: underlying}
	for symbol, snap := range chain {
		contract := OptionContract{
			Symbol:            symbol,
			ImpliedVolatility: snap.ImpliedVolatility,
		}
		if snap.LatestQuote != nil {
			contract.BidPrice = &snap.LatestQuote.BidPrice
			contract.AskPrice = &snap.LatestQuote.AskPrice
		}
		if snap.Greeks != nil {
			contract.Delta = &snap.Greeks.Delta
		}
		output.Contracts = append(output.Contracts, contract)
	}
	output.Count = len(output.Contracts)

	return &core.ToolExecResult{Status: core.ToolComplete, Output: output}
}

func parseInput(msg *core.Message, v interface{}) error {
	if msg == nil || msg.ToolReq == nil {
		return fmt.Errorf("no tool request")
	}
	if len(msg.ToolReq.InputRaw) > 0 {
		return json.Unmarshal(msg.ToolReq.InputRaw, v)
	}
	if msg.ToolReq.Input != nil {
		data, err := json.Marshal(msg.ToolReq.Input)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	}
	return nil
}

func errorResult(err error) *core.ToolExecResult {
	return &core.ToolExecResult{
		Status: core.ToolFailed,
		Error:  err.Error(),
	}
}

// RegisterAlpacaTools registers the stock and options tools.
func RegisterAlpacaTools(registry *core.ToolRegistry, client *alpaca.Client) {
	policy := core.ReadOnlyPolicy("alpaca-data")
	registry.Register(NewGetStockQuoteTool(client), policy)
	registry.Register(NewGetOptionChainTool(client), policy)
}
