package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a new StepClock.
var Epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// StepClock is a deterministic raffle.Clock for tests.
//
// Each call to Now returns the previous instant plus Step, starting at
// Epoch. Two runs of the same test therefore produce identical timestamps.
//
// Thread-safety: all methods are safe for concurrent use.
type StepClock struct {
	mu   sync.Mutex
	step time.Duration
	next time.Time
}

// NewStepClock creates a clock whose first Now() returns Epoch.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{step: step, next: Epoch}
}

// Now returns the current instant and advances the clock by one step.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// Reset rewinds the clock so the next Now() returns Epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = Epoch
}
