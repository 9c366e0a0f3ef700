// Package testutil provides shared test doubles.
package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe manual wall clock for tests. Time only moves when a
// test calls Advance or SetTime, so freshness windows can be crossed
// deterministically.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{t: start}
}

// Now returns the current frozen time. Suitable as a now-func injection
// point (e.g. prices.Cache).
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// SetTime jumps the clock to t.
func (c *Clock) SetTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
