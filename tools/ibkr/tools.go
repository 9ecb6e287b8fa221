// Package ibkr provides agent tools for reading Interactive Brokers
// portfolio state through the Client Portal gateway.
package ibkr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/k-dang/finny/core"
	"github.com/k-dang/finny/pkg/ibkr"
)

// GetPortfolioTool fetches positions and cash for an account.
type GetPortfolioTool struct {
	client *ibkr.Client
}

type GetPortfolioInput struct {
	AccountID string `json:"account_id"` // defaults to the first visible account
}

type GetPortfolioOutput struct {
	AccountID      string          `json:"account_id"`
	Positions      []ibkr.Position `json:"positions"`
	CashBalance    float64         `json:"cash_balance"`
	NetLiquidation float64         `json:"net_liquidation"`
}

func NewGetPortfolioTool(client *ibkr.Client) *GetPortfolioTool {
	return &GetPortfolioTool{client: client}
}

func (t *GetPortfolioTool) Name() string {
	return "ibkr_get_portfolio"
}

func (t *GetPortfolioTool) Description() string {
	return "Fetch current positions and cash balances from an Interactive Brokers account."
}

func (t *GetPortfolioTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"account_id": {"type": "string", "description": "Account ID (defaults to the first visible account)"}
		}
	}`)
}

func (t *GetPortfolioTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input GetPortfolioInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}

	ctx, cancel := context.WithTimeout(tc.Ctx, 30*time.Second)
	defer cancel()

	accountID := input.AccountID
	if accountID == "" {
		accounts, err := t.client.GetAccounts(ctx)
		if err != nil {
			return errorResult(fmt.Errorf("get accounts failed: %w", err))
		}
		if len(accounts) == 0 {
			return errorResult(fmt.Errorf("no accounts visible to this session"))
		}
		accountID = accounts[0]
	}

	positions, err := t.client.GetAllPositions(ctx, accountID)
	if err != nil {
		return errorResult(fmt.Errorf("get positions failed: %w", err))
	}

	output := GetPortfolioOutput{AccountID: accountID, Positions: positions}
	if ledger, err := t.client.GetLedger(ctx, accountID); err == nil {
		if base, ok := ledger["BASE"]; ok {
			output.CashBalance = base.CashBalance
			output.NetLiquidation = base.NetLiquidation
		}
	}

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

// RegisterIBKRTools registers the portfolio tools.
func RegisterIBKRTools(registry *core.ToolRegistry, client *ibkr.Client) {
	registry.Register(NewGetPortfolioTool(client), core.ReadOnlyPolicy("ibkr-portal"))
}
