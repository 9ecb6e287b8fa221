// Package alpaca provides a read-only client for the Alpaca Market Data API:
// latest stock quotes, snapshots, and option chain snapshots.
package alpaca

import "time"

// DefaultBaseURL is the Alpaca Market Data API base URL.
const DefaultBaseURL = "https://data.alpaca.markets"

// Quote is a latest NBBO quote for a symbol.
type Quote struct {
	Timestamp time.Time `json:"t"`
	AskPrice  float64   `json:"ap"`
	AskSize   float64   `json:"as"`
	BidPrice  float64   `json:"bp"`
	BidSize   float64   `json:"bs"`
	AskExch   string    `json:"ax"`
	BidExch   string    `json:"bx"`
}

// Trade is a latest trade for a symbol.
type Trade struct {
	Timestamp time.Time `json:"t"`
	Price     float64   `json:"p"`
	Size      float64   `json:"s"`
	Exchange  string    `json:"x"`
}

// Bar is an OHLCV aggregate.
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// Snapshot bundles the latest market state for one symbol.
type Snapshot struct {
	LatestTrade  *Trade `json:"latestTrade"`
	LatestQuote  *Quote `json:"latestQuote"`
	DailyBar     *Bar   `json:"dailyBar"`
	PrevDailyBar *Bar   `json:"prevDailyBar"`
}

// Greeks are option pricing sensitivities.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// OptionSnapshot is the latest state of one option contract.
type OptionSnapshot struct {
	LatestQuote       *Quote  `json:"latestQuote"`
	LatestTrade       *Trade  `json:"latestTrade"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	Greeks            *Greeks `json:"greeks"`
}

// OptionChainFilter narrows an option chain request. Zero values are omitted.
type OptionChainFilter struct {
	Type           string // "call" or "put"
	StrikePriceGte float64
	StrikePriceLte float64
	ExpirationDate string // YYYY-MM-DD
	Limit          int
}

// latestQuoteResponse wraps the latest-quote endpoint payload.
type latestQuoteResponse struct {
	Symbol string `json:"symbol"`
	Quote  Quote  `json:"quote"`
}

// optionChainResponse wraps the option-chain endpoint payload, keyed by
// contract symbol.
type optionChainResponse struct {
	Snapshots     map[string]OptionSnapshot `json:"snapshots"`
	NextPageToken *string                   `json:"next_page_token"`
}
