// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// referenceTime is the FakeClock default when no initial time is given.
var referenceTime = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

type (
	// Clock abstracts the wall clock.
	Clock interface {
		// Now returns the current time.
		Now() time.Time
		// Since returns the time elapsed since t.
		Since(t time.Time) time.Duration
	}

	// RealClock reads the system clock.
	RealClock struct{}

	// FakeClock only moves when Advance or Set is called.
	FakeClock struct {
		mu      sync.Mutex
		current time.Time
	}
)

// Now returns time.Now.
func (RealClock) Now() time.Time { return time.Now() }

// Since returns time.Since(t).
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// NewFakeClock returns a FakeClock at initial, or at a fixed reference time
// when initial is zero.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = referenceTime
	}
	return &FakeClock{current: initial}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Since returns the fake time elapsed since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t, backwards if needed.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}
