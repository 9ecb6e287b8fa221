// Package scan implements the mispricing scoring engine for prediction
// markets. The engine is pure: it performs no I/O, reads only its inputs,
// and is safe for concurrent use. The Scanner collaborator in scanner.go
// handles fetching and feeds the engine.
package scan

import "math"

// Side indicates which side of a contract a detected edge favors.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Confidence is the coarse tier assigned to a signal.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Market is an immutable snapshot of a tradeable prediction-market contract,
// normalized from a venue listing. Nil pointer fields mean "unknown", never
// zero.
type Market struct {
	ID       string
	Slug     string
	Question string
	EventID  string

	// Outcomes and OutcomePrices are index-aligned; a nil price means the
	// venue did not report one for that outcome.
	Outcomes      []string
	OutcomePrices []*float64

	Active          bool
	Closed          bool
	AcceptingOrders bool

	Volume     *float64
	Volume24hr *float64
	Liquidity  *float64

	BestBid *float64
	BestAsk *float64
	Spread  *float64 // fractional, e.g. 0.02

	OneHourPriceChange *float64
	OneDayPriceChange  *float64

	// ClobTokenIDs are exchange-internal token identifiers, one per outcome,
	// index-aligned with Outcomes.
	ClobTokenIDs []string
}

// PriceLevel is a single price+size entry in a raw order-book ladder.
type PriceLevel struct {
	Price float64
	Size  float64
}

// RawOrderbook is an unnormalized order-book payload for one outcome token.
type RawOrderbook struct {
	TokenID   string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp string
}

// OrderbookSnapshot is the canonical view of an order book at a point in
// time. It is computed fresh on each scoring call and never cached by the
// engine.
type OrderbookSnapshot struct {
	TokenID   string
	BestBid   *float64
	BestAsk   *float64
	Midpoint  *float64 // clamped to [0.01, 0.99]
	SpreadBps *float64 // non-negative
	Timestamp string   // ISO instant when parseable, else the raw value
}

// MispricingSignal is the engine's primary output, one per scored market.
type MispricingSignal struct {
	MarketID        string     `json:"market_id"`
	MarketSlug      string     `json:"market_slug"`
	Side            Side       `json:"side"`
	MarketProb      float64    `json:"market_prob"`       // 4 decimals
	FairProbProxy   float64    `json:"fair_prob_proxy"`   // 4 decimals
	EdgePct         float64    `json:"edge_pct"`          // 2 decimals
	MispricingScore float64    `json:"mispricing_score"`  // 0-100, 2 decimals
	Confidence      Confidence `json:"confidence"`
	Rationale       []string   `json:"rationale"`
	RiskFlags       []string   `json:"risk_flags"`
}

// MispricingTrace is the diagnostic twin of a signal, exposing every
// intermediate component. Discarded unless explicitly requested.
type MispricingTrace struct {
	MarketID string `json:"market_id"`

	MarketProb    float64 `json:"market_prob"`
	FairProbProxy float64 `json:"fair_prob_proxy"`

	SpreadQuality            float64 `json:"spread_quality"`
	LiquidityDepthQuality    float64 `json:"liquidity_depth_quality"`
	MomentumDislocation      float64 `json:"momentum_dislocation"`
	RelatedMarketConsistency float64 `json:"related_market_consistency"`
	EdgeMagnitude            float64 `json:"edge_magnitude"`
	WeightedSum              float64 `json:"weighted_sum"`

	LowActivityPenalty float64 `json:"low_activity_penalty"`
	StalePenalty       float64 `json:"stale_penalty"`

	SpreadBps            *float64 `json:"spread_bps"`
	Liquidity            *float64 `json:"liquidity"`
	Volume24hr           *float64 `json:"volume_24hr"`
	StalenessMinutes     *float64 `json:"staleness_minutes"`
	PeerCount            int      `json:"peer_count"`
	PartitionDislocation *float64 `json:"partition_dislocation"`
	MomentumHasData      bool     `json:"momentum_has_data"`
}

// Candidate bundles one market with its order book and sibling markets for
// batch ranking.
type Candidate struct {
	Market    Market
	Orderbook *OrderbookSnapshot
	Related   []Market
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampProb bounds a probability away from certainty.
func clampProb(v float64) float64 {
	return clamp(v, 0.01, 0.99)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func ptr(v float64) *float64 {
	return &v
}
