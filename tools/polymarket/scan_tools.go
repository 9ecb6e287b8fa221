package polymarket

import (
	"fmt"

	"github.com/k-dang/finny/core"
	"github.com/k-dang/finny/pkg/scan"
)

// ScanMispricingsTool runs a full mispricing scan and returns ranked signals.
type ScanMispricingsTool struct {
	scanner *scan.Scanner
}

type ScanMispricingsInput struct {
	MaxMarkets   int     `json:"max_markets"`    // candidate cap (default 200)
	Limit        int     `json:"limit"`          // max signals returned
	MinVolume    float64 `json:"min_volume"`     // 24h volume pre-filter
	MaxSpreadBps float64 `json:"max_spread_bps"` // spread pre-filter
	MinEdgePct   float64 `json:"min_edge_pct"`   // edge post-filter
	HorizonHours float64 `json:"horizon_hours"`  // momentum horizon (default 24)
}

type ScanMispricingsOutput struct {
	RunID          string                  `json:"run_id"`
	GeneratedAt    string                  `json:"generated_at"`
	MarketsScanned int                     `json:"markets_scanned"`
	Signals        []scan.MispricingSignal `json:"signals"`
	Warnings       []string                `json:"warnings,omitempty"`
	Disclaimer     string                  `json:"disclaimer"`
}

const scanDisclaimer = "Heuristic research signals, not investment advice."

func NewScanMispricingsTool(scanner *scan.Scanner) *ScanMispricingsTool {
	return &ScanMispricingsTool{scanner: scanner}
}

func (t *ScanMispricingsTool) Name() string {
	return "polymarket_scan_mispricings"
}

func (t *ScanMispricingsTool) Description() string {
	return "Scan active Polymarket markets for potential mispricings and return ranked signals with rationale and risk flags."
}

func (t *ScanMispricingsTool) InputSchema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"max_markets": {"type": "integer", "description": "Maximum candidate markets to scan (default 200)"},
			"limit": {"type": "integer", "description": "Maximum signals to return (default 20)"},
			"min_volume": {"type": "number", "description": "Minimum 24h volume pre-filter"},
			"max_spread_bps": {"type": "number", "description": "Maximum spread pre-filter in basis points"},
			"min_edge_pct": {"type": "number", "description": "Minimum edge post-filter in percent"},
			"horizon_hours": {"type": "number", "description": "Momentum time horizon in hours (default 24)"}
		}
	}`)
}

func (t *ScanMispricingsTool) Execute(tc *core.ToolContext) *core.ToolExecResult {
	var input ScanMispricingsInput
	if err := parseInput(tc.Request, &input); err != nil {
		return errorResult(err)
	}

	params := scan.ScanParams{MaxMarkets: input.MaxMarkets}
	if params.MaxMarkets == 0 {
		params.MaxMarkets = 200
	}
	if input.Limit > 0 {
		limit := input.Limit
		params.Limit = &limit
	}
	if input.MinVolume > 0 {
		v := input.MinVolume
		params.MinVolume = &v
	}
	if input.MaxSpreadBps > 0 {
		v := input.MaxSpreadBps
		params.MaxSpreadBps = &v
	}
	if input.HorizonHours > 0 {
		v := input.HorizonHours
		params.TimeHorizonHours = &v
	}
	params.MinEdgePct = input.MinEdgePct

	report, err := t.scanner.Scan(tc.Ctx, params)
	if err != nil {
		return errorResult(fmt.Errorf("scan failed: %w", err))
	}

	return &core.ToolExecResult{
		Status: core.ToolComplete,
		Output: ScanMispricingsOutput{
			RunID:          report.RunID,
			GeneratedAt:    report.GeneratedAt,
			MarketsScanned: report.MarketsScanned,
			Signals:        report.Signals,
			Warnings:       report.Warnings,
			Disclaimer:     scanDisclaimer,
		},
	}
}

// RegisterScanTools registers the mispricing scan tool.
func RegisterScanTools(registry *core.ToolRegistry, scanner *scan.Scanner) {
	policy := core.ReadOnlyPolicy("polymarket-scan")
	policy.RateLimitPerSec = 0.2 // scans are expensive
	registry.Register(NewScanMispricingsTool(scanner), policy)
}
