// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"time"

	"github.com/db47h/pinsim"
	"github.com/pkg/errors"
)

// memWiring connects a Master to a memory chip.
const memWiring = "D[0..3]=D[0..3], PHI1=PHI1, PHI2=PHI2, SEL=SEL, RESET=RESET"

// Bench steps a set of parts by hand on a simulated clock. Parts are updated
// in the order they were attached, once per Tick, so there is none of the
// scheduling jitter of free-running components.
//
type Bench struct {
	Clock  *pinsim.SimClock
	Master *Master
	// Step is the simulated time added before each Tick.
	Step time.Duration

	parts []pinsim.Component
}

// NewBench returns a bench with a Master on a SimClock starting at the Unix
// epoch.
//
func NewBench() *Bench {
	return NewBenchClock(pinsim.NewSimClock(time.Unix(0, 0)))
}

// NewBenchClock returns a bench running on clk. Parts attached to the bench
// must use the same clock.
//
func NewBenchClock(clk *pinsim.SimClock) *Bench {
	return &Bench{
		Clock:  clk,
		Master: NewMaster("master", clk),
	}
}

// Attach adds c to the parts updated on each Tick. If c has the memory chip
// pinout, its pins are connected to the Master (WE included when present).
// c is updated once so that it samples the idle clock levels.
//
func (b *Bench) Attach(c pinsim.Component) error {
	if _, err := c.Pin("SEL"); err == nil {
		if err = pinsim.Connect(b.Master, c, memWiring); err != nil {
			return errors.Wrap(err, "attach "+c.Name())
		}
		if we, err := c.Pin("WE"); err == nil {
			mwe, _ := b.Master.Pin("WE")
			if err = mwe.Connect(we); err != nil {
				return err
			}
		}
	}
	b.parts = append(b.parts, c)
	c.Update()
	return nil
}

// Parts returns the attached parts.
//
func (b *Bench) Parts() []pinsim.Component { return b.parts }

// Now returns the bench time.
//
func (b *Bench) Now() time.Time { return b.Clock.Now() }

// Advance moves the bench time forward without updating parts.
//
func (b *Bench) Advance(d time.Duration) { b.Clock.Advance(d) }

// Tick advances time by Step and updates every part once.
//
func (b *Bench) Tick() {
	b.Clock.Advance(b.Step)
	for _, p := range b.parts {
		p.Update()
	}
}

// Pulse1 raises Φ1 for one tick and lowers it for one tick.
//
func (b *Bench) Pulse1() {
	b.Master.SetPhi1(pinsim.High)
	b.Tick()
	b.Master.SetPhi1(pinsim.Low)
	b.Tick()
}

// Pulse2 raises Φ2 for one tick and lowers it for one tick.
//
func (b *Bench) Pulse2() {
	b.Master.SetPhi2(pinsim.High)
	b.Tick()
	b.Master.SetPhi2(pinsim.Low)
	b.Tick()
}

// SendAddress selects the attached chips and sends addr over two Φ1 cycles,
// high nibble first, then releases the data bus.
//
func (b *Bench) SendAddress(addr uint8) {
	b.Master.Select(true)
	b.Master.PutNibble(addr >> 4)
	b.Pulse1()
	b.Master.PutNibble(addr & 0x0F)
	b.Pulse1()
	b.Master.ReleaseData()
	b.Tick()
}

// Read performs a complete read cycle of a one-window chip: address, access
// time, one Φ2 window. It returns the nibble sampled while Φ2 is High.
//
func (b *Bench) Read(addr uint8, access time.Duration) (uint8, bool) {
	ns, ok := b.ReadCycle(addr, access, 1)
	return ns[0], ok
}

// ReadCycle performs a read cycle of the given number of Φ2 windows and
// returns the nibbles sampled while Φ2 is High. ok is false if any data line
// was floating in any window.
//
func (b *Bench) ReadCycle(addr uint8, access time.Duration, windows int) (ns []uint8, ok bool) {
	b.Master.WriteEnable(false)
	b.SendAddress(addr)
	b.Advance(access)
	b.Tick()
	ok = true
	for i := 0; i < windows; i++ {
		b.Master.SetPhi2(pinsim.High)
		b.Tick()
		n, nok := b.Master.ReadNibble()
		ns = append(ns, n)
		ok = ok && nok
		b.Master.SetPhi2(pinsim.Low)
		b.Tick()
	}
	return ns, ok
}

// Write performs a complete write cycle: address with WE High, access time,
// data on the bus during one Φ2 window.
//
func (b *Bench) Write(addr uint8, v uint8, access time.Duration) {
	b.Master.WriteEnable(true)
	b.SendAddress(addr)
	b.Advance(access)
	b.Tick()
	b.Master.PutNibble(v)
	b.Master.SetPhi2(pinsim.High)
	b.Tick()
	b.Master.SetPhi2(pinsim.Low)
	b.Tick()
	b.Master.ReleaseData()
	b.Master.WriteEnable(false)
	b.Tick()
}
