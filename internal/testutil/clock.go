package testutil

import (
	"sync"
	"time"
)

// Clock is a fixed, advanceable wall-time source for tests.
//
// Production code takes a now func (time.Now by default); tests inject
// clock.Now to pin retention cutoffs and timestamps without sleeping.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at the given instant.
func NewClock(at time.Time) *Clock {
	return &Clock{now: at}
}

// Now returns the current instant. Pass the method value as the
// engine's time source: syncengine.WithNow(clock.Now).
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set pins the clock to a specific instant. Used for test reuse.
func (c *Clock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}
