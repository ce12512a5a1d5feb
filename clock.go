// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import (
	"sync"
	"time"
)

// A Clock is the time source used by components for access-time and
// settlement checks, and for pacing their run loop.
//
// RealClock follows wall-clock time. SimClock only moves when told to, which
// lets tests step a circuit deterministically.
//
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock is a Clock backed by the time package.
//
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// Sleep calls time.Sleep.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// Since returns the time elapsed on c since t.
//
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// SimClock is a logical clock. Its time only changes through Advance, or
// through Sleep which advances it by the requested duration.
//
// The zero value is a clock starting at the Unix epoch.
//
type SimClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewSimClock returns a SimClock starting at t0.
//
func NewSimClock(t0 time.Time) *SimClock {
	return &SimClock{now: t0}
}

func (c *SimClock) init() {
	if c.now.IsZero() {
		c.now = time.Unix(0, 0)
	}
}

// Now returns the current logical time.
//
func (c *SimClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.init()
	return c.now
}

// Advance moves the logical time forward by d. Negative durations are ignored.
//
func (c *SimClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	c.init()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Sleep advances the clock by d and yields the processor so that other
// goroutines get a chance to run.
//
func (c *SimClock) Sleep(d time.Duration) {
	c.Advance(d)
	yield()
}
