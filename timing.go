// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import "time"

// State is a state of the TimingFSM.
//
type State uint8

// TimingFSM states.
//
const (
	Idle State = iota
	AddressPhase
	WaitLatency
	DriveData
)

// Chip specific names for DriveData. They behave exactly like DriveData.
//
const (
	ReadData   = DriveData
	WriteData  = DriveData
	OutputPort = DriveData
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AddressPhase:
		return "AddressPhase"
	case WaitLatency:
		return "WaitLatency"
	case DriveData:
		return "DriveData"
	}
	return "State(?)"
}

// Edges reports the clock edges seen by a call to TimingFSM.Sample.
//
type Edges struct {
	Phi1Rise, Phi1Fall bool
	Phi2Rise, Phi2Fall bool
}

func rising(prev, cur Value) bool  { return prev == Low && cur == High }
func falling(prev, cur Value) bool { return prev == High && cur == Low }

// Inputs is what a chip samples from its pins before stepping its TimingFSM.
//
type Inputs struct {
	Phi1, Phi2 Value
	Select     bool
	Reset      bool
	Data       uint8 // nibble on the data pins
}

type nibble struct {
	v  uint8
	ok bool
}

// TimingFSM is the clocked protocol shared by the memory-family chips:
//
//	Idle         -> AddressPhase  Φ1 rising edge while selected, latches the high nibble
//	AddressPhase -> WaitLatency   next Φ1 rising edge, latches the low nibble
//	WaitLatency  -> DriveData     once Access has elapsed since the address latch
//	DriveData    -> Idle          after Windows Φ2 falling edges
//	any          -> Idle          on reset or when deselected
//
// Chips decide what DriveData means and when to drive their pins; MayDrive
// tells them whether they are allowed to.
//
// A TimingFSM is not safe for concurrent use. It is owned by a single chip and
// only touched from that chip's Update.
//
type TimingFSM struct {
	// Access is the minimum delay between the address latch and valid data.
	Access time.Duration
	// Windows is the number of Φ2 cycles spent in DriveData. Zero means
	// DriveData returns to Idle on the next step.
	Windows int

	state      State
	prev1      Value
	prev2      Value
	hi, lo     nibble
	ready      bool
	addr       uint8
	latched    time.Time
	hasLatch   bool
	window     int
	exitedData bool
	doneAddr   uint8
}

// NewTimingFSM returns an idle state machine.
//
func NewTimingFSM(access time.Duration, windows int) *TimingFSM {
	return &TimingFSM{Access: access, Windows: windows}
}

// State returns the current state.
//
func (f *TimingFSM) State() State { return f.state }

// Sample records the current clock levels and returns the edges since the
// previous sample. Shadows are updated on every call, so an edge is reported
// exactly once.
//
func (f *TimingFSM) Sample(phi1, phi2 Value) Edges {
	e := Edges{
		Phi1Rise: rising(f.prev1, phi1),
		Phi1Fall: falling(f.prev1, phi1),
		Phi2Rise: rising(f.prev2, phi2),
		Phi2Fall: falling(f.prev2, phi2),
	}
	f.prev1, f.prev2 = phi1, phi2
	return e
}

// LatchNibble latches n as the high nibble if none is held yet, or as the low
// nibble otherwise. Latching the low nibble assembles the address, clears
// both holders, sets the ready flag, records now as the latch time and moves
// to WaitLatency. It returns true when the address is complete.
//
func (f *TimingFSM) LatchNibble(n uint8, now time.Time) bool {
	n &= 0x0F
	if !f.hi.ok {
		f.hi = nibble{n, true}
		f.state = AddressPhase
		return false
	}
	f.lo = nibble{n, true}
	f.addr = f.hi.v<<4 | f.lo.v
	f.hi, f.lo = nibble{}, nibble{}
	f.ready = true
	f.latched = now
	f.hasLatch = true
	f.state = WaitLatency
	return true
}

// Reset returns to Idle and clears the nibble holders, the ready flag and the
// latch time. Clock shadows are kept.
//
func (f *TimingFSM) Reset() {
	f.state = Idle
	f.hi, f.lo = nibble{}, nibble{}
	f.ready = false
	f.addr = 0
	f.latched = time.Time{}
	f.hasLatch = false
	f.window = 0
}

// AddressReady reports whether a full address has been latched and not yet
// consumed or reset.
//
func (f *TimingFSM) AddressReady() bool { return f.ready }

// Address returns the latched address. ok is false if no address is ready.
//
func (f *TimingFSM) Address() (addr uint8, ok bool) {
	return f.addr, f.ready
}

// Nibbles returns the nibble holders. The ok flags report which are held.
//
func (f *TimingFSM) Nibbles() (hi uint8, hiOK bool, lo uint8, loOK bool) {
	return f.hi.v, f.hi.ok, f.lo.v, f.lo.ok
}

// LatchTime returns the time of the last address latch, if any.
//
func (f *TimingFSM) LatchTime() (time.Time, bool) {
	return f.latched, f.hasLatch
}

// AccessElapsed reports whether Access has elapsed since the latch time.
//
func (f *TimingFSM) AccessElapsed(now time.Time) bool {
	return f.hasLatch && now.Sub(f.latched) >= f.Access
}

// Window returns the index of the current Φ2 window in DriveData.
//
func (f *TimingFSM) Window() int { return f.window }

// Done reports whether the last Step left DriveData on completion of its data
// windows, as opposed to a reset or deselection, and returns the address that
// was consumed.
//
func (f *TimingFSM) Done() (addr uint8, ok bool) { return f.doneAddr, f.exitedData }

// Arm starts a latency wait without an address phase, as used by chips that
// latch on a single clock edge. The ready flag is not set, so MayDrive stays
// false; such chips apply their own output rule.
//
func (f *TimingFSM) Arm(now time.Time) {
	f.hi, f.lo = nibble{}, nibble{}
	f.latched = now
	f.hasLatch = true
	f.state = WaitLatency
}

// Step samples the clocks and advances the state machine by one tick.
// Reset has priority over everything else.
//
func (f *TimingFSM) Step(now time.Time, in Inputs) Edges {
	e := f.Sample(in.Phi1, in.Phi2)
	f.exitedData = false
	if in.Reset {
		f.Reset()
		return e
	}
	if f.state != Idle && !in.Select {
		f.Reset()
		return e
	}
	switch f.state {
	case Idle:
		if in.Select && e.Phi1Rise {
			f.LatchNibble(in.Data, now)
		}
	case AddressPhase:
		if e.Phi1Rise {
			f.LatchNibble(in.Data, now)
		}
	case WaitLatency:
		if f.AccessElapsed(now) {
			f.state = DriveData
			f.window = 0
			if f.Windows <= 0 {
				f.complete()
			}
		}
	case DriveData:
		if e.Phi2Fall {
			f.window++
			if f.window >= f.Windows {
				f.complete()
			}
		}
	}
	return e
}

// complete ends the data phase and consumes the address.
func (f *TimingFSM) complete() {
	addr := f.addr
	f.Reset()
	f.exitedData = true
	f.doneAddr = addr
}

// MayDrive reports whether a chip may assert data on its pins: it must be
// selected, in the data phase of the clock (Φ1 not High), in DriveData with a
// complete address, and the access time must have elapsed.
//
func (f *TimingFSM) MayDrive(selected bool, phi1 Value, now time.Time) bool {
	return selected &&
		phi1 != High &&
		f.state == DriveData &&
		f.ready &&
		f.AccessElapsed(now)
}
