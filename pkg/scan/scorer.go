package scan

import (
	"fmt"
	"math"
)

// ScoreConfig holds the heuristic constants of the composite scorer. The
// defaults are fixed calibration values carried from production use; they are
// exposed for inspection, not for tuning against ground truth (none exists).
type ScoreConfig struct {
	WeightSpreadQuality            float64
	WeightLiquidityDepthQuality    float64
	WeightMomentumDislocation      float64
	WeightRelatedMarketConsistency float64
	WeightEdgeMagnitude            float64

	SpreadQualityFloorBps float64 // spreads at or below score 1.0
	SpreadQualityBandBps  float64 // band over which quality decays to 0
	MissingSpreadQuality  float64

	EdgeSaturationPct float64

	LowActivityVolumeFloor  float64
	LowActivityVolumeSoft   float64
	LowActivityPenaltyHard  float64
	LowActivityPenaltySoft  float64
	StalePenaltyUnknown     float64
	StalePenaltyOldMinutes  float64
	StalePenaltyOld         float64
	StalePenaltyAgedMinutes float64
	StalePenaltyAged        float64

	HighScoreFloor     float64
	HighEdgeFloorPct   float64
	HighPenaltyCeiling float64
	MediumScoreFloor   float64
	MediumEdgeFloorPct float64

	WideSpreadFlagBps  float64
	ThinLiquidityFloor float64
}

// DefaultScoreConfig returns the production scoring constants.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		WeightSpreadQuality:            0.23,
		WeightLiquidityDepthQuality:    0.25,
		WeightMomentumDislocation:      0.18,
		WeightRelatedMarketConsistency: 0.18,
		WeightEdgeMagnitude:            0.16,

		SpreadQualityFloorBps: 25,
		SpreadQualityBandBps:  475,
		MissingSpreadQuality:  0.2,

		EdgeSaturationPct: 4,

		LowActivityVolumeFloor:  250,
		LowActivityVolumeSoft:   2500,
		LowActivityPenaltyHard:  0.16,
		LowActivityPenaltySoft:  0.08,
		StalePenaltyUnknown:     0.04,
		StalePenaltyOldMinutes:  60,
		StalePenaltyOld:         0.14,
		StalePenaltyAgedMinutes: 20,
		StalePenaltyAged:        0.07,

		HighScoreFloor:     70,
		HighEdgeFloorPct:   1.5,
		HighPenaltyCeiling: 0.09,
		MediumScoreFloor:   45,
		MediumEdgeFloorPct: 0.75,

		WideSpreadFlagBps:  400,
		ThinLiquidityFloor: 1000,
	}
}

// ScoreMarket runs the full scoring pipeline for a single market and returns
// its signal together with the diagnostic trace. nowISO is the caller's
// explicit clock reading; the engine never consults the system clock.
func ScoreMarket(m Market, ob *OrderbookSnapshot, related []Market, nowISO string, horizonHours float64) (MispricingSignal, MispricingTrace) {
	return ScoreMarketWith(DefaultScoreConfig(), m, ob, related, nowISO, horizonHours)
}

// ScoreMarketWith is ScoreMarket with explicit scoring constants.
func ScoreMarketWith(cfg ScoreConfig, m Market, ob *OrderbookSnapshot, related []Market, nowISO string, horizonHours float64) (MispricingSignal, MispricingTrace) {
	marketProb := resolveMarketProb(m, ob)
	spreadBps := resolveSpreadBps(m, ob)
	momentum := estimateMomentum(m, horizonHours)
	partition := estimatePartition(m, marketProb, related)

	fairProb := clampProb(marketProb + momentum.FairAdjustment + partition.FairAdjustment)
	signedEdge := fairProb - marketProb
	side := SideYes
	if signedEdge < 0 {
		side = SideNo
	}
	edgePct := math.Abs(signedEdge) * 100

	spreadQuality := cfg.MissingSpreadQuality
	if spreadBps != nil {
		spreadQuality = 1 - clamp((*spreadBps-cfg.SpreadQualityFloorBps)/cfg.SpreadQualityBandBps, 0, 1)
	}

	liqTerm := 0.0
	if m.Liquidity != nil {
		liqTerm = clamp(math.Log10(*m.Liquidity+1)/5, 0, 1)
	}
	volTerm := 0.0
	if m.Volume24hr != nil {
		volTerm = clamp(math.Log10(*m.Volume24hr+1)/6, 0, 1)
	}
	quoteTerm := 0.0
	if hasTwoSidedQuote(m, ob) {
		quoteTerm = 1.0
	}
	liquidityQuality := 0.55*liqTerm + 0.3*volTerm + 0.15*quoteTerm

	edgeMagnitude := clamp(edgePct/cfg.EdgeSaturationPct, 0, 1)

	weightedSum := cfg.WeightSpreadQuality*spreadQuality +
		cfg.WeightLiquidityDepthQuality*liquidityQuality +
		cfg.WeightMomentumDislocation*momentum.Score +
		cfg.WeightRelatedMarketConsistency*partition.Score +
		cfg.WeightEdgeMagnitude*edgeMagnitude

	lowActivityPenalty := 0.0
	switch {
	case m.Volume24hr == nil || *m.Volume24hr < cfg.LowActivityVolumeFloor:
		lowActivityPenalty = cfg.LowActivityPenaltyHard
	case *m.Volume24hr < cfg.LowActivityVolumeSoft:
		lowActivityPenalty = cfg.LowActivityPenaltySoft
	}

	ageMinutes := orderbookAgeMinutes(ob, nowISO)
	stalePenalty := cfg.StalePenaltyUnknown
	if ageMinutes != nil {
		switch {
		case *ageMinutes >= cfg.StalePenaltyOldMinutes:
			stalePenalty = cfg.StalePenaltyOld
		case *ageMinutes >= cfg.StalePenaltyAgedMinutes:
			stalePenalty = cfg.StalePenaltyAged
		default:
			stalePenalty = 0
		}
	}

	score := clamp((weightedSum-stalePenalty-lowActivityPenalty)*100, 0, 100)

	confidence := ConfidenceLow
	switch {
	case score >= cfg.HighScoreFloor && edgePct >= cfg.HighEdgeFloorPct && stalePenalty+lowActivityPenalty < cfg.HighPenaltyCeiling:
		confidence = ConfidenceHigh
	case score >= cfg.MediumScoreFloor && edgePct >= cfg.MediumEdgeFloorPct:
		confidence = ConfidenceMedium
	}

	rationale := buildRationale(cfg, side, edgePct, spreadQuality, spreadBps, liquidityQuality, momentum, partition)
	riskFlags := buildRiskFlags(cfg, spreadBps, m, ageMinutes, momentum, confidence)

	signal := MispricingSignal{
		MarketID:        m.ID,
		MarketSlug:      m.Slug,
		Side:            side,
		MarketProb:      round4(marketProb),
		FairProbProxy:   round4(fairProb),
		EdgePct:         round2(edgePct),
		MispricingScore: round2(score),
		Confidence:      confidence,
		Rationale:       rationale,
		RiskFlags:       riskFlags,
	}

	trace := MispricingTrace{
		MarketID:                 m.ID,
		MarketProb:               round4(marketProb),
		FairProbProxy:            round4(fairProb),
		SpreadQuality:            spreadQuality,
		LiquidityDepthQuality:    liquidityQuality,
		MomentumDislocation:      momentum.Score,
		RelatedMarketConsistency: partition.Score,
		EdgeMagnitude:            edgeMagnitude,
		WeightedSum:              weightedSum,
		LowActivityPenalty:       lowActivityPenalty,
		StalePenalty:             stalePenalty,
		SpreadBps:                spreadBps,
		Liquidity:                m.Liquidity,
		Volume24hr:               m.Volume24hr,
		StalenessMinutes:         ageMinutes,
		PeerCount:                partition.PeerCount,
		PartitionDislocation:     partition.Dislocation,
		MomentumHasData:          momentum.HasData,
	}

	return signal, trace
}

// hasTwoSidedQuote reports whether a two-sided quote is available from either
// the order book or the market record itself.
func hasTwoSidedQuote(m Market, ob *OrderbookSnapshot) bool {
	if ob != nil && ob.BestBid != nil && ob.BestAsk != nil {
		return true
	}
	return m.BestBid != nil && m.BestAsk != nil
}

// orderbookAgeMinutes computes the snapshot age. Nil when there is no order
// book or either instant fails to parse.
func orderbookAgeMinutes(ob *OrderbookSnapshot, nowISO string) *float64 {
	if ob == nil {
		return nil
	}
	then := parseInstant(ob.Timestamp)
	now := parseInstant(nowISO)
	if then == nil || now == nil {
		return nil
	}
	return ptr(now.Sub(*then).Minutes())
}

func buildRationale(cfg ScoreConfig, side Side, edgePct, spreadQuality float64, spreadBps *float64, liquidityQuality float64, momentum MomentumResult, partition PartitionResult) []string {
	var out []string
	if edgePct >= cfg.MediumEdgeFloorPct {
		out = append(out, fmt.Sprintf("Fair-value proxy differs from the market-implied probability by %.2f points, favoring the %s side.", round2(edgePct), side))
	}
	if spreadQuality >= 0.65 && spreadBps != nil {
		out = append(out, fmt.Sprintf("Spread of %.0f bps is tight enough for the quote to be informative.", *spreadBps))
	}
	if liquidityQuality >= 0.6 {
		out = append(out, "Liquidity and 24h volume are deep enough to support the estimate.")
	}
	if momentum.Score >= 0.45 {
		out = append(out, "Recent price movement looks overextended relative to the requested horizon.")
	}
	if partition.Score >= 0.35 && partition.Dislocation != nil {
		out = append(out, fmt.Sprintf("Sibling contracts in the same event sum to %.3f, leaving %.1f points of group mispricing.", 1-*partition.Dislocation, math.Abs(*partition.Dislocation)*100))
	}
	if len(out) == 0 {
		out = append(out, "No single indicator stands out; the composite score reflects weak aggregate evidence.")
	}
	return out
}

func buildRiskFlags(cfg ScoreConfig, spreadBps *float64, m Market, ageMinutes *float64, momentum MomentumResult, confidence Confidence) []string {
	var out []string
	if spreadBps == nil {
		out = append(out, "missing spread data")
	} else if *spreadBps > cfg.WideSpreadFlagBps {
		out = append(out, "wide spread execution risk")
	}
	if m.Liquidity == nil || *m.Liquidity < cfg.ThinLiquidityFloor {
		out = append(out, "thin liquidity")
	}
	if m.Volume24hr == nil || *m.Volume24hr < cfg.LowActivityVolumeFloor {
		out = append(out, "low 24h activity")
	}
	if ageMinutes != nil && *ageMinutes >= cfg.StalePenaltyOldMinutes {
		out = append(out, "stale orderbook snapshot")
	}
	if !momentum.HasData {
		out = append(out, "limited momentum history")
	}
	if confidence == ConfidenceLow {
		out = append(out, "low confidence signal")
	}
	if len(out) == 0 {
		out = append(out, "educational signal only")
	}
	return out
}
