// Package ibkr provides a read-only client for the Interactive Brokers
// Client Portal Web API: accounts, portfolio positions, and cash ledger.
// The gateway runs locally and serves a self-signed certificate.
package ibkr

// DefaultBaseURL is the local Client Portal gateway address.
const DefaultBaseURL = "https://localhost:5000"

// accountsResponse wraps the accounts endpoint payload.
type accountsResponse struct {
	Accounts []string          `json:"accounts"`
	Selected string            `json:"selectedAccount"`
	Aliases  map[string]string `json:"aliases"`
}

// Position is one holding in a portfolio.
type Position struct {
	ConID         int64   `json:"conid"`
	ContractDesc  string  `json:"contractDesc"`
	AssetClass    string  `json:"assetClass"`
	Position      float64 `json:"position"`
	MktPrice      float64 `json:"mktPrice"`
	MktValue      float64 `json:"mktValue"`
	AvgCost       float64 `json:"avgCost"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
	RealizedPnl   float64 `json:"realizedPnl"`
	Currency      string  `json:"currency"`
	Ticker        string  `json:"ticker"`
}

// LedgerEntry is the cash state for one currency within an account.
type LedgerEntry struct {
	Currency          string  `json:"currency"`
	CashBalance       float64 `json:"cashbalance"`
	SettledCash       float64 `json:"settledcash"`
	NetLiquidation    float64 `json:"netliquidationvalue"`
	UnrealizedPnl     float64 `json:"unrealizedpnl"`
	StockMarketValue  float64 `json:"stockmarketvalue"`
	OptionMarketValue float64 `json:"optionmarketvalue"`
}

// AuthStatus reports whether the gateway session is live.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Connected     bool   `json:"connected"`
	Competing     bool   `json:"competing"`
	Message       string `json:"message"`
}
