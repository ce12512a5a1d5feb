// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing chips.
//
package hwtest

import (
	"github.com/db47h/pinsim"
)

type masterPins struct {
	D     [4]*pinsim.Pin `hw:"io"`
	Phi1  *pinsim.Pin    `hw:"out,PHI1"`
	Phi2  *pinsim.Pin    `hw:"out,PHI2"`
	Sel   *pinsim.Pin    `hw:"out,SEL"`
	Reset *pinsim.Pin    `hw:"out,RESET"`
	WE    *pinsim.Pin    `hw:"out"`
}

// Master stands in for a CPU on a memory bus. It has no behavior of its own:
// tests set its pins directly. Its pins are named after the memory chip pins
// (D[0..3], PHI1, PHI2, SEL, RESET, WE).
//
type Master struct {
	*pinsim.Base
	pins masterPins
}

// NewMaster returns a bus master with all its pins driven Low, except for the
// data bus which is released.
//
func NewMaster(name string, clk pinsim.Clock) *Master {
	m := &Master{}
	b, err := pinsim.NewBaseFor(name, clk, nil, &m.pins)
	if err != nil {
		panic(err)
	}
	m.Base = b
	for _, p := range []*pinsim.Pin{m.pins.Phi1, m.pins.Phi2, m.pins.Sel, m.pins.Reset, m.pins.WE} {
		m.Drive(p, pinsim.Low)
	}
	m.ReleaseData()
	return m
}

// Update implements pinsim.Component. It does nothing.
//
func (m *Master) Update() {}

// Run implements pinsim.Component.
//
func (m *Master) Run() { m.RunLoop(m) }

// SetPhi1 drives Φ1.
func (m *Master) SetPhi1(v pinsim.Value) { m.Drive(m.pins.Phi1, v) }

// SetPhi2 drives Φ2.
func (m *Master) SetPhi2(v pinsim.Value) { m.Drive(m.pins.Phi2, v) }

// Select drives SEL.
func (m *Master) Select(on bool) { m.Drive(m.pins.Sel, pinsim.Level(on)) }

// Reset drives RESET.
func (m *Master) Reset(on bool) { m.Drive(m.pins.Reset, pinsim.Level(on)) }

// WriteEnable drives WE.
func (m *Master) WriteEnable(on bool) { m.Drive(m.pins.WE, pinsim.Level(on)) }

// PutNibble drives n on the data bus.
//
func (m *Master) PutNibble(n uint8) {
	for i, d := range m.pins.D {
		m.Drive(d, pinsim.Level(n&(1<<uint(i)) != 0))
	}
}

// ReleaseData tri-states the master's data bus drivers.
//
func (m *Master) ReleaseData() {
	m.Release(m.pins.D[:]...)
}

// Data returns the resolved data bus levels.
//
func (m *Master) Data() [4]pinsim.Value {
	var vs [4]pinsim.Value
	for i, d := range m.pins.D {
		vs[i] = d.Read()
	}
	return vs
}

// ReadNibble returns the nibble on the data bus. ok is false if any data line
// is floating.
//
func (m *Master) ReadNibble() (n uint8, ok bool) {
	ok = true
	for i, v := range m.Data() {
		switch v {
		case pinsim.High:
			n |= 1 << uint(i)
		case pinsim.HighZ:
			ok = false
		}
	}
	return n, ok
}

// DataZ reports whether all data lines are floating.
//
func (m *Master) DataZ() bool {
	for _, v := range m.Data() {
		if v != pinsim.HighZ {
			return false
		}
	}
	return true
}
