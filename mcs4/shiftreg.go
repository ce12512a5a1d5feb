// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcs4

import (
	"sync"
	"time"

	"github.com/db47h/pinsim"
)

// ShiftWidth is the number of parallel outputs of a ShiftRegister.
//
const ShiftWidth = 10

type shiftPins struct {
	CP    *pinsim.Pin             `hw:"in"`
	DIn   *pinsim.Pin             `hw:"in,DIN"`
	E     *pinsim.Pin             `hw:"in"`
	Reset *pinsim.Pin             `hw:"in,RESET"`
	Q     [ShiftWidth]*pinsim.Pin `hw:"out"`
	SOut  *pinsim.Pin             `hw:"out,SOUT"`
}

// ShiftRegister is a 4003 style 10-bit serial-in, parallel-out shift register
// used as an output port expander.
//
//	Pins: CP, DIN, E, RESET (in), Q[0..9], SOUT (out)
//
// Each CP rising edge shifts DIN into Q0 and the previous Q9 out to SOUT. The
// new outputs are latched once the access time has elapsed after the shift.
// Q is driven only while E is High and no shift is settling; SOUT only while no
// shift is settling.
//
type ShiftRegister struct {
	*pinsim.Base
	cfg  Config
	pins shiftPins

	mu      sync.Mutex
	fsm     *pinsim.TimingFSM
	reg     uint16
	sout    bool
	out     uint16 // latched outputs
	outSout bool
	valid   bool // out holds a latched value
}

// NewShiftRegister returns a cleared shift register.
//
func NewShiftRegister(name string, cfg Config) (*ShiftRegister, error) {
	s := &ShiftRegister{cfg: cfg}
	b, err := pinsim.NewBaseFor(name, cfg.Clock, cfg.Log, &s.pins)
	if err != nil {
		return nil, err
	}
	b.Pacing = cfg.pacing()
	s.Base = b
	s.fsm = pinsim.NewTimingFSM(cfg.access(), 0)
	return s, nil
}

// Clone returns a new cleared shift register with the same name and
// configuration.
//
func (s *ShiftRegister) Clone() *ShiftRegister {
	c, err := NewShiftRegister(s.Name(), s.cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Register returns the current shift register contents and the latched
// outputs.
//
func (s *ShiftRegister) Register() (reg, out uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg, s.out
}

// State returns the state of the output state machine: WaitLatency while a
// shift settles, Idle otherwise.
//
func (s *ShiftRegister) State() pinsim.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.State()
}

// AccessTime returns the shift to output delay.
//
func (s *ShiftRegister) AccessTime() time.Duration { return s.fsm.Access }

func (s *ShiftRegister) clear() {
	s.fsm.Reset()
	s.reg, s.out = 0, 0
	s.sout, s.outSout = false, false
	s.valid = false
}

// Update implements pinsim.Component.
//
func (s *ShiftRegister) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Stopped() {
		return
	}
	now := s.Clock.Now()
	e := s.fsm.Sample(s.pins.CP.Read(), pinsim.HighZ)

	if s.pins.Reset.Read() == pinsim.High {
		s.clear()
		s.Release(s.pins.Q[:]...)
		s.Release(s.pins.SOut)
		return
	}
	if e.Phi1Rise {
		s.sout = s.reg&(1<<(ShiftWidth-1)) != 0
		s.reg = (s.reg<<1 | boolBit(s.pins.DIn.Read() == pinsim.High)) & (1<<ShiftWidth - 1)
		s.fsm.Arm(now)
	}
	if s.fsm.State() == pinsim.WaitLatency && s.fsm.AccessElapsed(now) {
		// OutputPort: latch and return to Idle at once.
		s.out, s.outSout, s.valid = s.reg, s.sout, true
		s.fsm.Reset()
		s.Log.Printf("%s: latched %#03x", s.Name(), s.out)
	}

	if !s.valid || s.fsm.State() != pinsim.Idle {
		s.Release(s.pins.Q[:]...)
		s.Release(s.pins.SOut)
		return
	}
	s.Drive(s.pins.SOut, pinsim.Level(s.outSout))
	if s.pins.E.Read() != pinsim.High {
		s.Release(s.pins.Q[:]...)
		return
	}
	for i, q := range s.pins.Q {
		s.Drive(q, pinsim.Level(s.out&(1<<uint(i)) != 0))
	}
}

func boolBit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// Run implements pinsim.Component.
//
func (s *ShiftRegister) Run() { s.RunLoop(s) }

// Stop implements pinsim.Component.
//
func (s *ShiftRegister) Stop() {
	s.Base.Stop()
	s.mu.Lock()
	s.fsm.Reset()
	s.mu.Unlock()
}
