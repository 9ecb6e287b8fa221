package scan

import "math"

const (
	minHorizonHours = 1.0
	maxHorizonHours = 168.0

	// A 6-percentage-point move saturates the momentum score.
	momentumSaturation = 0.06

	// Momentum is treated as partly mean-reverting: a recent up-move nudges
	// fair value down. The adjustment is capped at 12 points either way.
	meanReversionFactor   = 0.35
	momentumAdjustmentCap = 0.12
)

// MomentumResult is the output of the momentum dislocation estimator.
type MomentumResult struct {
	Score          float64 // [0, 1]
	FairAdjustment float64 // signed, capped
	HasData        bool
}

// estimateMomentum converts the market's short/medium-term price-change
// fields into a bounded fair-value adjustment and a confidence score.
// Shorter horizons weight the 1-hour change more heavily.
func estimateMomentum(m Market, horizonHours float64) MomentumResult {
	oneHour := m.OneHourPriceChange
	oneDay := m.OneDayPriceChange
	if oneHour == nil && oneDay == nil {
		return MomentumResult{}
	}

	h := clamp(horizonHours, minHorizonHours, maxHorizonHours)
	hourWeight := clamp(0.8-(h-1)/120, 0.2, 0.8)
	dayWeight := 1 - hourWeight

	hourChange := coalesce(oneHour, oneDay, ptr(0))
	dayChange := coalesce(oneDay, oneHour, ptr(0))
	composite := *hourChange*hourWeight + *dayChange*dayWeight

	return MomentumResult{
		Score:          clamp(math.Abs(composite)/momentumSaturation, 0, 1),
		FairAdjustment: clamp(-composite*meanReversionFactor, -momentumAdjustmentCap, momentumAdjustmentCap),
		HasData:        true,
	}
}
