// Package gamma provides a read-only client for the Polymarket Gamma
// Markets API, which serves market and event metadata.
package gamma

import (
	"encoding/json"
	"strconv"
	"time"
)

// Event represents a Polymarket event (a container for sibling markets).
type Event struct {
	ID         string     `json:"id"`
	Ticker     string     `json:"ticker"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Active     bool       `json:"active"`
	Closed     bool       `json:"closed"`
	Archived   bool       `json:"archived"`
	Liquidity  *JSONFloat `json:"liquidity"`
	Volume     *JSONFloat `json:"volume"`
	Volume24hr *JSONFloat `json:"volume24hr"`
	EndDate    time.Time  `json:"endDate"`
	Markets    []Market   `json:"markets,omitempty"`
	NegRisk    bool       `json:"negRisk"`
}

// EventRef is the trimmed event reference embedded in market listings.
type EventRef struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Market represents a single prediction-market contract. Quote and momentum
// fields are pointers because Gamma omits them for inactive or thin markets;
// a nil value means unknown, not zero.
type Market struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	ConditionID     string    `json:"conditionId"`
	Slug            string    `json:"slug"`
	EndDate         time.Time `json:"endDate"`
	Active          bool      `json:"active"`
	Closed          bool      `json:"closed"`
	Archived        bool      `json:"archived"`
	AcceptingOrders bool      `json:"acceptingOrders"`

	// JSON-encoded parallel arrays: outcome labels, last-known outcome
	// prices, and CLOB token IDs.
	OutcomesRaw      string `json:"outcomes"`
	OutcomePricesRaw string `json:"outcomePrices"`
	ClobTokenIDsRaw  string `json:"clobTokenIds"`

	Liquidity  *JSONFloat `json:"liquidity"`
	Volume     *JSONFloat `json:"volume"`
	Volume24hr *JSONFloat `json:"volume24hr"`

	BestBid *JSONFloat `json:"bestBid"`
	BestAsk *JSONFloat `json:"bestAsk"`
	Spread  *JSONFloat `json:"spread"`

	OneHourPriceChange *JSONFloat `json:"oneHourPriceChange"`
	OneDayPriceChange  *JSONFloat `json:"oneDayPriceChange"`

	EventID string     `json:"eventID"`
	Events  []EventRef `json:"events,omitempty"`

	NegRisk bool `json:"negRisk"`
}

// JSONFloat handles Gamma's habit of serving numbers as either JSON numbers
// or strings.
type JSONFloat float64

func (j *JSONFloat) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*j = JSONFloat(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*j = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*j = JSONFloat(f)
	return nil
}

func (j JSONFloat) Float64() float64 {
	return float64(j)
}

// MarketsFilter contains filter parameters for listing markets.
type MarketsFilter struct {
	Active       *bool
	Closed       *bool
	EventID      string
	Slug         string
	ClobTokenIDs string // comma-separated
	Limit        int
	Offset       int
	Order        string // e.g. "volume24hr"
	Ascending    *bool
}

// EventsFilter contains filter parameters for listing events.
type EventsFilter struct {
	Active *bool
	Closed *bool
	Slug   string
	Limit  int
	Offset int
}

// BoolPtr returns a pointer to a bool, for filter literals.
func BoolPtr(b bool) *bool {
	return &b
}

// IsTradeable reports whether the market is open for trading.
func (m *Market) IsTradeable() bool {
	return m.Active && !m.Closed && !m.Archived && m.AcceptingOrders
}

// EventGroupID returns the identifier grouping this market with its
// siblings, preferring the embedded event reference.
func (m *Market) EventGroupID() string {
	if len(m.Events) > 0 && m.Events[0].ID != "" {
		return m.Events[0].ID
	}
	return m.EventID
}

// Outcomes returns the parsed outcome labels.
func (m *Market) Outcomes() []string {
	return parseStringArray(m.OutcomesRaw)
}

// ClobTokenIDs returns the parsed token IDs, index-aligned with Outcomes.
func (m *Market) ClobTokenIDs() []string {
	return parseStringArray(m.ClobTokenIDsRaw)
}

// OutcomePrices returns the parsed outcome prices, index-aligned with
// Outcomes. Entries that fail to parse are nil.
func (m *Market) OutcomePrices() []*float64 {
	raw := parseStringArray(m.OutcomePricesRaw)
	prices := make([]*float64, len(raw))
	for i, s := range raw {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v := f
			prices[i] = &v
		}
	}
	return prices
}

func parseStringArray(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
