package testutil

import (
	"fmt"
	"sync"
	"time"
)

// FixedIdentity returns predetermined entry IDs and deterministic
// timestamps. It implements consolidate.IdentityGenerator.
//
// When the predetermined IDs run out, IDs continue as "<prefix>-<n>".
// This keeps scenario golden files stable without listing every ID.
//
// Thread-safety: FixedIdentity is safe for concurrent use via internal mutex.
type FixedIdentity struct {
	mu     sync.Mutex
	ids    []string
	idx    int
	prefix string
	clock  *DeterministicClock
}

// NewFixedIdentity creates a generator that returns ids in order, then
// "merged-<n>". Timestamps come from a clock starting at Epoch and
// stepping one second.
func NewFixedIdentity(ids ...string) *FixedIdentity {
	return &FixedIdentity{
		ids:    ids,
		prefix: "merged",
		clock:  NewDeterministicClock(Epoch, time.Second),
	}
}

// WithClock replaces the timestamp source.
func (g *FixedIdentity) WithClock(c *DeterministicClock) *FixedIdentity {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock = c
	return g
}

// NewID returns the next predetermined ID.
func (g *FixedIdentity) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.idx)
}

// Now returns the next deterministic timestamp.
func (g *FixedIdentity) Now() time.Time {
	g.mu.Lock()
	c := g.clock
	g.mu.Unlock()
	return c.Now()
}

// Issued returns how many IDs have been handed out.
func (g *FixedIdentity) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.idx
}
