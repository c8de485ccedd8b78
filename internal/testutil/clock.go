package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic wall clock for tests.
// Every call to Now advances the clock by Step.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewStepClock creates a clock starting at a fixed instant with a one second step.
func NewStepClock() *StepClock {
	return &StepClock{
		now:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Step: time.Second,
	}
}

// Now returns the next instant.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.Step)
	return c.now
}

// Peek returns the last instant handed out without advancing.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
