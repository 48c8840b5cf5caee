package store

import "sync/atomic"

// Counter allocates global counts: the process-wide total order index
// stamped on every appended log entry.
//
// Global counts are not revision vectors. They only order entries for
// recency tie-breaking.
//
// Thread-safety: Counter is safe for concurrent use (atomic operations).
type Counter struct {
	n atomic.Int64
}

// NewCounterAt creates a counter whose next value is start+1.
// Open seeds it with the largest global count already persisted.
func NewCounterAt(start int64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

// Next returns the next global count.
func (c *Counter) Next() int64 {
	return c.n.Add(1)
}

// Current returns the last allocated global count without incrementing.
func (c *Counter) Current() int64 {
	return c.n.Load()
}

// Observe raises the counter to at least n, so explicitly numbered
// entries never collide with allocated ones.
func (c *Counter) Observe(n int64) {
	for {
		cur := c.n.Load()
		if n <= cur || c.n.CompareAndSwap(cur, n) {
			return
		}
	}
}
