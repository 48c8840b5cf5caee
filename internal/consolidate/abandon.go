package consolidate

import (
	"github.com/roach88/baselines/internal/ir"
)

// Abandoned reports whether baselines constructed to describe replica show
// it was reset without committing further work: two or more of them
// carry the same revision for the replica's own clock component.
//
// Baselines constructed for other replicas are ignored.
func Abandoned(replica ir.ReplicaID, baselines []*ir.LogEntry) bool {
	seen := make(map[uint64]bool, len(baselines))
	for _, b := range baselines {
		if b.ConstructedFor != replica {
			continue
		}
		rev := b.Clock.Get(string(replica))
		if seen[rev] {
			return true
		}
		seen[rev] = true
	}
	return false
}
