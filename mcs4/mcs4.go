// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package mcs4 provides pin-level models of 4-bit microprocessor support
// chips: a two-phase clock generator, a 4001 style ROM, a 4002 style RAM and a
// 4003 style shift register.
//
// Memory chips share the same protocol (see pinsim.TimingFSM): while selected,
// two Φ1 rising edges latch an 8-bit address from the 4-bit data bus, high
// nibble first. After the access time has elapsed, the chip drives or samples
// the data bus during the following Φ2 window(s). Outside of that window its
// data pins are always tri-stated.
//
package mcs4

import (
	"log"
	"sync"
	"time"

	"github.com/db47h/pinsim"
)

// Pin names.
//
const (
	PinPhi1  = "PHI1"
	PinPhi2  = "PHI2"
	PinSel   = "SEL"
	PinReset = "RESET"
	PinWE    = "WE"
	BusData  = "D"
)

// DefaultAccessTime is the access time used when Config.AccessTime is zero.
//
const DefaultAccessTime = 500 * time.Nanosecond

// Config holds the settings shared by all chips. The zero value is usable.
//
type Config struct {
	// Clock used for access time checks and pacing. Defaults to
	// pinsim.RealClock.
	Clock pinsim.Clock
	// Log receives state transitions. Defaults to discarding them.
	Log *log.Logger
	// AccessTime is the delay between the address latch (or shift) and
	// valid outputs. Defaults to DefaultAccessTime.
	AccessTime time.Duration
	// Pacing of the run loop. Defaults to 1% of AccessTime.
	Pacing time.Duration
	// Size is the storage size in words for memory chips. Zero selects the
	// chip's default.
	Size int
}

func (c Config) access() time.Duration {
	if c.AccessTime <= 0 {
		return DefaultAccessTime
	}
	return c.AccessTime
}

func (c Config) pacing() time.Duration {
	if c.Pacing > 0 {
		return c.Pacing
	}
	return pinsim.PacingFor(c.access())
}

// memPins is the pinout shared by memory chips.
type memPins struct {
	D     [4]*pinsim.Pin `hw:"io"`
	Phi1  *pinsim.Pin    `hw:"in,PHI1"`
	Phi2  *pinsim.Pin    `hw:"in,PHI2"`
	Sel   *pinsim.Pin    `hw:"in,SEL"`
	Reset *pinsim.Pin    `hw:"in,RESET"`
}

// memCore is the protocol engine embedded in memory chips. It owns the pins and
// the timing state machine; chips supply what happens in the data phase.
type memCore struct {
	*pinsim.Base
	cfg Config

	mu  sync.Mutex // guards fsm and chip storage
	fsm *pinsim.TimingFSM
}

func (c *memCore) init(name string, cfg Config, windows int, pins interface{}) error {
	b, err := pinsim.NewBaseFor(name, cfg.Clock, cfg.Log, pins)
	if err != nil {
		return err
	}
	b.Pacing = cfg.pacing()
	c.Base = b
	c.cfg = cfg
	c.fsm = pinsim.NewTimingFSM(cfg.access(), windows)
	return nil
}

func readNibble(d [4]*pinsim.Pin) uint8 {
	var n uint8
	for i, p := range d {
		if p.Read() == pinsim.High {
			n |= 1 << uint(i)
		}
	}
	return n
}

func (c *memCore) inputs(p *memPins) pinsim.Inputs {
	return pinsim.Inputs{
		Phi1:   p.Phi1.Read(),
		Phi2:   p.Phi2.Read(),
		Select: p.Sel.Read() == pinsim.High,
		Reset:  p.Reset.Read() == pinsim.High,
		Data:   readNibble(p.D),
	}
}

// step advances the state machine and logs transitions.
func (c *memCore) step(now time.Time, in pinsim.Inputs) (prev pinsim.State) {
	prev = c.fsm.State()
	c.fsm.Step(now, in)
	if s := c.fsm.State(); s != prev {
		if s == pinsim.WaitLatency {
			a, _ := c.fsm.Address()
			c.Log.Printf("%s: %v -> %v addr=%#02x", c.Name(), prev, s, a)
		} else {
			c.Log.Printf("%s: %v -> %v", c.Name(), prev, s)
		}
	}
	return prev
}

func (c *memCore) driveNibble(p *memPins, n uint8) {
	for i, d := range p.D {
		c.Drive(d, pinsim.Level(n&(1<<uint(i)) != 0))
	}
}

func (c *memCore) release(p *memPins) {
	c.Release(p.D[:]...)
}

// State returns the state of the chip's protocol state machine.
//
func (c *memCore) State() pinsim.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.State()
}

// Address returns the latched address, if any.
//
func (c *memCore) Address() (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.Address()
}

// Nibbles returns the chip's address nibble holders.
//
func (c *memCore) Nibbles() (hi uint8, hiOK bool, lo uint8, loOK bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.Nibbles()
}

// LatchTime returns the time of the last address latch, if any.
//
func (c *memCore) LatchTime() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.LatchTime()
}

// AccessTime returns the chip's access time.
//
func (c *memCore) AccessTime() time.Duration { return c.fsm.Access }
