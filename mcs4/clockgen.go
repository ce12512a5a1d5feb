// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcs4

import (
	"sync"
	"time"

	"github.com/db47h/pinsim"
	"github.com/pkg/errors"
)

// DefaultPeriod is the clock period of a 740kHz MCS-4 system.
//
const DefaultPeriod = 1350 * time.Nanosecond

type clockPins struct {
	Phi1 *pinsim.Pin `hw:"out,PHI1"`
	Phi2 *pinsim.Pin `hw:"out,PHI2"`
}

// ClockGen is a two-phase, non-overlapping clock generator. Each period is
// split in four quarters: Φ1 High, both Low, Φ2 High, both Low.
//
//	Pins: PHI1, PHI2 (out)
//
// Phases are computed from elapsed time on the configured clock, so a ClockGen
// driven by a pinsim.SimClock is fully deterministic.
//
type ClockGen struct {
	*pinsim.Base
	cfg    Config
	period time.Duration
	pins   clockPins

	mu      sync.Mutex
	start   time.Time
	started bool
	cycles  uint64
	last1   pinsim.Value
}

// NewClockGen returns a clock generator with the given period. A zero period
// selects DefaultPeriod. The period must be at least 4ns.
//
func NewClockGen(name string, period time.Duration, cfg Config) (*ClockGen, error) {
	if period == 0 {
		period = DefaultPeriod
	}
	if period < 4 {
		return nil, errors.Errorf("%s: clock period %v too short", name, period)
	}
	c := &ClockGen{cfg: cfg, period: period}
	b, err := pinsim.NewBaseFor(name, cfg.Clock, cfg.Log, &c.pins)
	if err != nil {
		return nil, err
	}
	b.Pacing = cfg.Pacing
	if b.Pacing <= 0 {
		b.Pacing = pinsim.PacingFor(period / 4)
	}
	c.Base = b
	return c, nil
}

// Clone returns a new, not started clock generator with the same settings.
//
func (c *ClockGen) Clone() *ClockGen {
	n, err := NewClockGen(c.Name(), c.period, c.cfg)
	if err != nil {
		panic(err)
	}
	return n
}

// Period returns the clock period.
//
func (c *ClockGen) Period() time.Duration { return c.period }

// Cycles returns the number of Φ1 pulses emitted so far.
//
func (c *ClockGen) Cycles() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

// Phase returns the clock levels at time t, for a clock started at start.
//
func Phase(period time.Duration, start, t time.Time) (phi1, phi2 pinsim.Value) {
	el := t.Sub(start)
	if el < 0 {
		return pinsim.Low, pinsim.Low
	}
	switch q := (el % period) * 4 / period; q {
	case 0:
		return pinsim.High, pinsim.Low
	case 2:
		return pinsim.Low, pinsim.High
	}
	return pinsim.Low, pinsim.Low
}

// Update implements pinsim.Component. The first call starts the clock.
//
func (c *ClockGen) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Stopped() {
		return
	}
	now := c.Clock.Now()
	if !c.started {
		c.start, c.started = now, true
	}
	phi1, phi2 := Phase(c.period, c.start, now)
	if phi1 == pinsim.High && c.last1 != pinsim.High {
		c.cycles++
	}
	c.last1 = phi1
	c.Drive(c.pins.Phi1, phi1)
	c.Drive(c.pins.Phi2, phi2)
}

// Run implements pinsim.Component.
//
func (c *ClockGen) Run() { c.RunLoop(c) }
