package consolidate

import (
	"github.com/roach88/baselines/internal/ir"
	"github.com/roach88/baselines/internal/vclock"
)

// Redundancy partitions a set of baselines into the ones to keep as merge
// inputs and the ones whose knowledge another baseline already holds.
// Both slices are in recency order.
type Redundancy struct {
	Survivors  []*ir.LogEntry
	Eliminated []*ir.LogEntry
}

// DetectRedundant compares every unordered pair of baselines:
//
//   - one clock dominates the other: the dominated baseline is eliminated
//   - the clocks are identical component for component: the less recent
//     baseline is eliminated
//   - otherwise (concurrent, or equal only by treating absent components
//     as zero): neither is eliminated by this pair
//
// Each pair decision depends only on the pair, so the result does not
// depend on the order of the input. With a non-empty input at least one
// baseline survives.
func DetectRedundant(baselines []*ir.LogEntry) Redundancy {
	sorted := SortByRecency(baselines)
	drop := make([]bool, len(sorted))

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			// sorted[i] is more recent than sorted[j].
			x, y := sorted[i], sorted[j]
			switch vclock.Compare(x.Clock, y.Clock) {
			case vclock.Descending:
				drop[j] = true
			case vclock.Ascending:
				drop[i] = true
			case vclock.Equal:
				if vclock.Identical(x.Clock, y.Clock) {
					drop[j] = true
				}
			}
		}
	}

	r := Redundancy{
		Survivors:  []*ir.LogEntry{},
		Eliminated: []*ir.LogEntry{},
	}
	for i, e := range sorted {
		if drop[i] {
			r.Eliminated = append(r.Eliminated, e)
		} else {
			r.Survivors = append(r.Survivors, e)
		}
	}
	return r
}
