// Package vclock implements revision vectors used to order log entries
// produced independently on different replicas.
//
// A Clock maps a replica identifier to the number of revisions that replica
// has committed. A missing component is equivalent to revision 0.
package vclock

import (
	"slices"
	"strconv"
	"strings"
)

// Clock maps replica identifier to revision number.
// The zero value (nil) is a valid empty clock.
type Clock map[string]uint64

// Ordering is the result of comparing two clocks.
type Ordering int

const (
	// Equal means every component of both clocks is the same.
	Equal Ordering = iota
	// Descending means the first clock happened after the second.
	Descending
	// Ascending means the first clock happened before the second.
	Ascending
	// Concurrent means neither clock dominates the other.
	Concurrent
)

// String returns a human-readable name for the ordering.
func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Descending:
		return "descending"
	case Ascending:
		return "ascending"
	case Concurrent:
		return "concurrent"
	default:
		return "ordering(" + strconv.Itoa(int(o)) + ")"
	}
}

// Invert swaps Descending and Ascending. Equal and Concurrent are their own inverse.
func (o Ordering) Invert() Ordering {
	switch o {
	case Descending:
		return Ascending
	case Ascending:
		return Descending
	default:
		return o
	}
}

// Get returns the revision recorded for replica, or 0 when absent.
func (c Clock) Get(replica string) uint64 {
	return c[replica]
}

// Clone returns an independent copy of the clock.
func (c Clock) Clone() Clock {
	out := make(Clock, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Replicas returns the replica identifiers present in the clock, sorted.
func (c Clock) Replicas() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// String renders the clock as {a:1,b:2} with replicas in sorted order.
func (c Clock) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range c.Replicas() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id)
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(c[id], 10))
	}
	b.WriteByte('}')
	return b.String()
}

// Compare reports how a relates to b.
//
// Absent components count as 0, so {a:1} and {a:1,b:0} compare Equal.
// Use Identical to distinguish them.
func Compare(a, b Clock) Ordering {
	aGreater := false
	bGreater := false

	for id, av := range a {
		bv := b[id]
		if av > bv {
			aGreater = true
		} else if av < bv {
			bGreater = true
		}
	}
	for id, bv := range b {
		if _, seen := a[id]; seen {
			continue
		}
		if bv > 0 {
			bGreater = true
		}
	}

	switch {
	case aGreater && bGreater:
		return Concurrent
	case aGreater:
		return Descending
	case bGreater:
		return Ascending
	default:
		return Equal
	}
}

// Dominates reports whether a is Descending from or Equal to b.
func Dominates(a, b Clock) bool {
	o := Compare(a, b)
	return o == Descending || o == Equal
}

// Identical reports whether both clocks carry exactly the same replica
// components with the same revisions. Unlike Compare, an explicit zero
// component is not the same as an absent one.
func Identical(a, b Clock) bool {
	if len(a) != len(b) {
		return false
	}
	for id, av := range a {
		bv, ok := b[id]
		if !ok || av != bv {
			return false
		}
	}
	return true
}

// Max returns the component-wise maximum of the given clocks.
// The result dominates every input. Max of no clocks is an empty clock.
func Max(clocks ...Clock) Clock {
	out := make(Clock)
	for _, c := range clocks {
		for id, v := range c {
			if cur, ok := out[id]; !ok || v > cur {
				out[id] = v
			}
		}
	}
	return out
}
