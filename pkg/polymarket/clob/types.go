// Package clob provides a read-only client for the Polymarket CLOB
// (Central Limit Order Book) API: order books, prices, and price history.
package clob

// DefaultBaseURL is the CLOB API base URL.
const DefaultBaseURL = "https://clob.polymarket.com"

// OrderBookSummary is the order book for a single outcome token.
type OrderBookSummary struct {
	Market    string       `json:"market"`
	TokenID   string       `json:"asset_id"`
	Hash      string       `json:"hash"`
	Timestamp string       `json:"timestamp"` // epoch millis as a string
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}

// PriceLevel is a single aggregated price level.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// PriceResponse is the response from the price endpoint.
type PriceResponse struct {
	Price string `json:"price"`
}

// MidpointResponse is the response from the midpoint endpoint.
type MidpointResponse struct {
	Mid string `json:"mid"`
}

// SpreadResponse is the response from the spread endpoint.
type SpreadResponse struct {
	Spread string `json:"spread"`
}

// LastTradePrice is the most recent execution for a token.
type LastTradePrice struct {
	TokenID string `json:"asset_id"`
	Price   string `json:"price"`
	Side    string `json:"side"`
}

// PriceHistoryPoint is a single point in a token's price history.
type PriceHistoryPoint struct {
	Timestamp int64   `json:"t"` // epoch seconds
	Price     float64 `json:"p"`
}

// priceHistoryResponse wraps the history endpoint payload.
type priceHistoryResponse struct {
	History []PriceHistoryPoint `json:"history"`
}
