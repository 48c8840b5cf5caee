package consolidate

import (
	"cmp"
	"slices"

	"github.com/roach88/baselines/internal/ir"
)

// ByRecency orders log entries most recent first: higher global count,
// then later timestamp, then greater replica ID. Entries equal on all
// three are ordered by descending ID so the order is total.
//
// It is a comparison function for slices.SortFunc: negative when a is
// more recent than b.
func ByRecency(a, b *ir.LogEntry) int {
	if c := cmp.Compare(b.GlobalCount, a.GlobalCount); c != 0 {
		return c
	}
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Replica, a.Replica); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// MoreRecent reports whether a sorts before b in recency order.
func MoreRecent(a, b *ir.LogEntry) bool {
	return ByRecency(a, b) < 0
}

// SortByRecency returns a copy of entries sorted most recent first.
func SortByRecency(entries []*ir.LogEntry) []*ir.LogEntry {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, ByRecency)
	return sorted
}
