package scan

import (
	"errors"
	"sort"
)

// Parameter validation errors. A bad parameter invalidates the whole batch,
// so ranking fails fast before any scoring work begins.
var (
	ErrNegativeLimit      = errors.New("limit must not be negative")
	ErrNegativeMinVolume  = errors.New("min volume must not be negative")
	ErrInvalidMaxSpread   = errors.New("max spread bps must be positive")
	ErrInvalidTimeHorizon = errors.New("time horizon hours must be positive")
	ErrNegativeMinEdge    = errors.New("min edge pct must not be negative")
	ErrInvalidConcurrency = errors.New("concurrency must not be negative")
)

const (
	defaultLimit       = 20
	defaultTimeHorizon = 24.0

	// Tolerance for the min-edge post-filter so floating-point noise does
	// not reject signals sitting exactly on the boundary.
	edgeEpsilon = 1e-6
)

// RankParams controls batch ranking. Nil pointer fields take defaults.
type RankParams struct {
	NowISO           string
	TimeHorizonHours *float64 // default 24
	MinVolume        *float64 // no pre-filter when nil
	MaxSpreadBps     *float64 // no pre-filter when nil
	MinEdgePct       float64
	Limit            *int // default 20
	IncludeTrace     bool
}

// RankResult holds ranked signals and, when requested, index-aligned traces.
type RankResult struct {
	Signals []MispricingSignal
	Traces  []MispricingTrace
}

func (p RankParams) validate() error {
	if p.Limit != nil && *p.Limit < 0 {
		return ErrNegativeLimit
	}
	if p.MinVolume != nil && *p.MinVolume < 0 {
		return ErrNegativeMinVolume
	}
	if p.MaxSpreadBps != nil && *p.MaxSpreadBps <= 0 {
		return ErrInvalidMaxSpread
	}
	if p.TimeHorizonHours != nil && *p.TimeHorizonHours <= 0 {
		return ErrInvalidTimeHorizon
	}
	if p.MinEdgePct < 0 {
		return ErrNegativeMinEdge
	}
	return nil
}

// Rank filters a batch of candidates, scores the survivors, and returns them
// sorted by descending mispricing score. Ordering is fully deterministic for
// a given candidate set and NowISO.
func Rank(candidates []Candidate, p RankParams) (RankResult, error) {
	return RankWith(DefaultScoreConfig(), candidates, p)
}

// RankWith is Rank with explicit scoring constants.
func RankWith(cfg ScoreConfig, candidates []Candidate, p RankParams) (RankResult, error) {
	if err := p.validate(); err != nil {
		return RankResult{}, err
	}

	horizon := defaultTimeHorizon
	if p.TimeHorizonHours != nil {
		horizon = *p.TimeHorizonHours
	}
	limit := defaultLimit
	if p.Limit != nil {
		limit = *p.Limit
	}

	type scored struct {
		signal MispricingSignal
		trace  MispricingTrace
	}
	var results []scored

	for _, c := range candidates {
		// Cheap pre-filters before any scoring work.
		if p.MinVolume != nil {
			if c.Market.Volume24hr == nil || *c.Market.Volume24hr < *p.MinVolume {
				continue
			}
		}
		if p.MaxSpreadBps != nil {
			if bps := resolveSpreadBps(c.Market, c.Orderbook); bps != nil && *bps > *p.MaxSpreadBps {
				continue
			}
		}

		signal, trace := ScoreMarketWith(cfg, c.Market, c.Orderbook, c.Related, p.NowISO, horizon)
		if signal.EdgePct+edgeEpsilon < p.MinEdgePct {
			continue
		}
		results = append(results, scored{signal, trace})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].signal, results[j].signal
		if a.MispricingScore != b.MispricingScore {
			return a.MispricingScore > b.MispricingScore
		}
		if a.EdgePct != b.EdgePct {
			return a.EdgePct > b.EdgePct
		}
		return a.MarketSlug < b.MarketSlug
	})

	if limit < 0 {
		limit = 0
	}
	if len(results) > limit {
		results = results[:limit]
	}

	out := RankResult{Signals: make([]MispricingSignal, 0, len(results))}
	if p.IncludeTrace {
		out.Traces = make([]MispricingTrace, 0, len(results))
	}
	for _, r := range results {
		out.Signals = append(out.Signals, r.signal)
		if p.IncludeTrace {
			out.Traces = append(out.Traces, r.trace)
		}
	}
	return out, nil
}
