package scan

import "math"

const (
	// A coherent partition of mutually exclusive outcomes should sum close
	// to 1; sums outside this window are treated as garbage groupings.
	partitionSumMin = 0.6
	partitionSumMax = 1.4

	minUsablePeers = 3

	partitionSaturation    = 0.25
	partitionShareFactor   = 0.75
	partitionAdjustmentCap = 0.2
)

// PartitionResult is the output of the partition consistency estimator.
type PartitionResult struct {
	Score          float64
	FairAdjustment float64
	// Dislocation is 1 - sum of peer probabilities; positive means the
	// group is underpriced in aggregate. Nil when too few usable peers or
	// the sum is untrustworthy.
	Dislocation *float64
	// PeerCount excludes the subject market itself.
	PeerCount int
}

// estimatePartition checks whether the implied probabilities of sibling
// contracts in the same event sum near 1 and derives a fair-value correction
// for the subject market proportional to its stake in the mispriced total.
func estimatePartition(m Market, marketProb float64, related []Market) PartitionResult {
	pool := peerPool(m, related)
	peerCount := len(pool) - 1
	if peerCount < 0 {
		peerCount = 0
	}
	null := PartitionResult{PeerCount: peerCount}

	if len(pool) < minUsablePeers {
		return null
	}

	sum := 0.0
	usable := 0
	for _, peer := range pool {
		if p := outcomeProb(peer); p != nil {
			sum += *p
			usable++
		}
	}
	if usable < minUsablePeers {
		return null
	}
	if sum < partitionSumMin || sum > partitionSumMax {
		return null
	}

	dislocation := 1 - sum
	share := clamp(marketProb/sum, 0.05, 0.95)

	return PartitionResult{
		Score:          clamp(math.Abs(dislocation)/partitionSaturation, 0, 1),
		FairAdjustment: clamp(dislocation*share*partitionShareFactor, -partitionAdjustmentCap, partitionAdjustmentCap),
		Dislocation:    ptr(dislocation),
		PeerCount:      peerCount,
	}
}

// peerPool filters related markets to active, non-closed siblings,
// deduplicates by ID, and always includes the subject market itself.
func peerPool(m Market, related []Market) []Market {
	seen := map[string]bool{m.ID: true}
	pool := []Market{m}
	for _, r := range related {
		if !r.Active || r.Closed {
			continue
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		pool = append(pool, r)
	}
	return pool
}
