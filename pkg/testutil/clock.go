package testutil

import (
	"context"
	"sync"
)

// DeterministicClock is a ledger clock for tests. Each call to Now returns the
// current value; Advance moves it forward.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu  sync.Mutex
	now uint64
}

// NewDeterministicClock creates a clock pinned at start.
func NewDeterministicClock(start uint64) *DeterministicClock {
	return &DeterministicClock{now: start}
}

func (c *DeterministicClock) Now(_ context.Context) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by n and returns the new value.
func (c *DeterministicClock) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += n
	return c.now
}
