// Package polymarket provides agent tools for researching Polymarket
// prediction markets: market search, order-book inspection, and mispricing
// scans.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/k-dang/finny/core"
	"github.com/k-dang/finny/pkg/polymarket/gamma"
)

// SearchMarketsTool searches for markets matching a query.
type SearchMarketsTool struct {
	client *gamma.Client
}

type SearchMarketsInput struct {
	Query     string  `json:"query"`      // filters by question text
	Active    *bool   `json:"active"`     // filter by active status
	Limit     int     `json:"limit"`      // max results (default 20)
	MinVolume float64 `json:"min_volume"` // minimum volume filter
}

type SearchMarketsOutput struct {
	Markets []MarketSummary `json:"markets"`
	Count   int             `json:"count"`
}

type MarketSummary struct {
	ID         string   `json:"id"`
	Question   string   `json:"question"`
	Slug       string   `json:"slug"`
	Outcomes   []string `json:"outcomes"`
	YesPrice   *float64 `json:"yes_price,omitempty"`
	Volume24hr *float64 `json:"volume_24hr,omitempty"`
	Liquidity  *float64 `json:"liquidity,omitempty"`
	Active     bool     `json:"active"`
	EventID    string   `json:"event_id,omitempty"`
	TokenIDs   []string `json:"token_ids,omitempty"`
}

func NewSearchMarketsTool(client *gamma.Client) *SearchMarketsTool {
	return &SearchMarketsTool{client: client}
}

func (t *SearchMarketsTool) Name() string {
	return "polymarket_search_markets"
}

func (t *SearchMarketsTool) Description() string {
	return "Search Polymarket prediction markets by question text, with volume and activity filters."
}

func (t *SearchMarketsTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query for market questions"},
			"active": {"type": "boolean", "description": "Filter to only active markets"},
			"limit": {"type": "integer", "description": "Maximum number of results (default 20)", "maximum": 100},
			"min_volume": {"type": "number", "description": "Minimum 24h trading volume filter"}
		}
	}`)
}

func (t *SearchMarketsTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input SearchMarketsInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}

	if input.Limit == 0 {
		input.Limit = 20
	}

	ctx, cancel := context.WithTimeout(tc.Ctx, 30*time.Second)
	defer cancel()

	// Fetch more than requested so client-side query filtering still fills
	// the page.
	markets, err := t.client.ListMarkets(ctx, &gamma.MarketsFilter{
		Active: input.Active,
		Limit:  input.Limit * 3,
	})
	if err != nil {
		return errorResult(fmt.Errorf("list markets failed: %w", err))
	}

	query := strings.ToLower(input.Query)
	summaries := make([]MarketSummary, 0, input.Limit)
	for _, m := range markets {
		if query != "" && !strings.Contains(strings.ToLower(m.Question), query) {
			continue
		}
		if input.MinVolume > 0 && (m.Volume24hr == nil || m.Volume24hr.Float64() < input.MinVolume) {
			continue
		}

		summaries = append(summaries, summarize(m))
		if len(summaries) >= input.Limit {
			break
		}
	}

	return &core.ToolExecResult{
		Status: core.ToolComplete,
		Output: SearchMarketsOutput{Markets: summaries, Count: len(summaries)},
	}
}

// GetMarketTool fetches a single market with full detail.
type GetMarketTool struct {
	client *gamma.Client
}

type GetMarketInput struct {
	ID   string `json:"id"`   // market ID
	Slug string `json:"slug"` // market slug, used when ID is empty
}

func NewGetMarketTool(client *gamma.Client) *GetMarketTool {
	return &GetMarketTool{client: client}
}

func (t *GetMarketTool) Name() string {
	return "polymarket_get_market"
}

func (t *GetMarketTool) Description() string {
	return "Fetch one Polymarket market by ID or slug, including prices, volume, and outcome token IDs."
}

func (t *GetMarketTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "Market ID"},
			"slug": {"type": "string", "description": "Market slug (used when id is empty)"}
		}
	}`)
}

func (t *GetMarketTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input GetMarketInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}
	if input.ID == "" && input.Slug == "" {
		return errorResult(fmt.Errorf("id or slug is required"))
	}

	ctx, cancel := context.WithTimeout(tc.Ctx, 30*time.Second)
	defer cancel()

	var (
		market *gamma.Market
		err    error
	)
	if input.ID != "" {
		market, err = t.client.GetMarket(ctx, input.ID)
	} else {
		market, err = t.client.GetMarketBySlug(ctx, input.Slug)
	}
	if err != nil {
		return errorResult(fmt.Errorf("get market failed: %w", err))
	}

	return &core.ToolExecResult{
		Status: core.ToolComplete,
		Output: summarize(*market),
	}
}

func summarize(m gamma.Market) MarketSummary {
	s := MarketSummary{
		ID:       m.ID,
		Question: m.Question,
		Slug:     m.Slug,
		Outcomes: m.Outcomes(),
		Active:   m.Active,
		EventID:  m.EventGroupID(),
		TokenIDs: m.ClobTokenIDs(),
	}
	if prices := m.OutcomePrices(); len(prices) > 0 {
		s.YesPrice = prices[0]
	}
	if m.Volume24hr != nil {
		v := m.Volume24hr.Float64()
		s.Volume24hr = &v
	}
	if m.Liquidity != nil {
		v := m.Liquidity.Float64()
		s.Liquidity = &v
	}
	return s
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

// RegisterGammaTools registers the market-research tools.
func RegisterGammaTools(registry *core.ToolRegistry, client *gamma.Client) {
	policy := core.ReadOnlyPolicy("polymarket-gamma")
	registry.Register(NewSearchMarketsTool(client), policy)
	registry.Register(NewGetMarketTool(client), policy)
}
