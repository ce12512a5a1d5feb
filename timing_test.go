// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim_test

import (
	"testing"
	"time"

	"github.com/db47h/pinsim"
)

// fsmBench steps a TimingFSM by hand.
type fsmBench struct {
	f   *pinsim.TimingFSM
	now time.Time
	in  pinsim.Inputs
}

func newFSMBench(access time.Duration, windows int) *fsmBench {
	b := &fsmBench{
		f:   pinsim.NewTimingFSM(access, windows),
		now: time.Unix(0, 0),
		in:  pinsim.Inputs{Phi1: pinsim.Low, Phi2: pinsim.Low, Select: true},
	}
	b.step()
	return b
}

func (b *fsmBench) step() { b.f.Step(b.now, b.in) }

func (b *fsmBench) phi1(data uint8) {
	b.in.Data = data
	b.in.Phi1 = pinsim.High
	b.step()
	b.in.Phi1 = pinsim.Low
	b.step()
}

func (b *fsmBench) phi2() {
	b.in.Phi2 = pinsim.High
	b.step()
	b.in.Phi2 = pinsim.Low
	b.step()
}

func Test_TimingFSM_address(t *testing.T) {
	b := newFSMBench(0, 1)
	if s := b.f.State(); s != pinsim.Idle {
		t.Fatalf("initial state %v", s)
	}
	b.phi1(0x1)
	if s := b.f.State(); s != pinsim.AddressPhase {
		t.Fatalf("expected AddressPhase, got %v", s)
	}
	if hi, ok, _, lok := b.f.Nibbles(); !ok || lok || hi != 0x1 {
		t.Fatalf("unexpected holders hi=%#x(%v) lo(%v)", hi, ok, lok)
	}
	b.in.Phi1 = pinsim.High
	b.in.Data = 0x3
	b.step()
	if s := b.f.State(); s != pinsim.WaitLatency {
		t.Fatalf("expected WaitLatency, got %v", s)
	}
	if a, ok := b.f.Address(); !ok || a != 0x13 {
		t.Fatalf("expected address 0x13, got %#x (%v)", a, ok)
	}
	if lt, ok := b.f.LatchTime(); !ok || !lt.Equal(b.now) {
		t.Fatalf("latch time %v (%v)", lt, ok)
	}
}

func Test_TimingFSM_LatchNibble(t *testing.T) {
	f := pinsim.NewTimingFSM(0, 1)
	now := time.Unix(0, 0)
	for hi := uint8(0); hi < 16; hi++ {
		for lo := uint8(0); lo < 16; lo++ {
			f.Reset()
			if f.LatchNibble(hi, now) {
				t.Fatal("address complete after one nibble")
			}
			if !f.LatchNibble(lo, now) {
				t.Fatal("address incomplete after two nibbles")
			}
			if a, ok := f.Address(); !ok || a != hi<<4|lo {
				t.Fatalf("%#x, %#x: got address %#x", hi, lo, a)
			}
			if _, hok, _, lok := f.Nibbles(); hok || lok {
				t.Fatal("holders not cleared after latch")
			}
			if !f.AddressReady() {
				t.Fatal("ready flag not set")
			}
		}
	}
}

func Test_TimingFSM_access(t *testing.T) {
	const access = 500 * time.Nanosecond
	b := newFSMBench(access, 1)
	b.phi1(0x1)
	b.phi1(0x3)
	if s := b.f.State(); s != pinsim.WaitLatency {
		t.Fatalf("expected WaitLatency, got %v", s)
	}
	b.now = b.now.Add(access - 1)
	b.step()
	if s := b.f.State(); s != pinsim.WaitLatency {
		t.Fatalf("left WaitLatency early: %v", s)
	}
	if b.f.MayDrive(true, pinsim.Low, b.now) {
		t.Fatal("MayDrive before access time")
	}
	b.now = b.now.Add(1)
	b.step()
	if s := b.f.State(); s != pinsim.DriveData {
		t.Fatalf("expected DriveData, got %v", s)
	}
	if !b.f.MayDrive(true, pinsim.Low, b.now) {
		t.Fatal("MayDrive() = false in data phase")
	}
	if b.f.MayDrive(true, pinsim.High, b.now) {
		t.Fatal("MayDrive() = true while Φ1 is High")
	}
	if b.f.MayDrive(false, pinsim.Low, b.now) {
		t.Fatal("MayDrive() = true while deselected")
	}
	b.phi2()
	if s := b.f.State(); s != pinsim.Idle {
		t.Fatalf("expected Idle after data window, got %v", s)
	}
	if a, ok := b.f.Done(); !ok || a != 0x13 {
		t.Fatalf("Done() = %#x, %v", a, ok)
	}
	if b.f.AddressReady() {
		t.Fatal("address still ready after completion")
	}
}

func Test_TimingFSM_windows(t *testing.T) {
	b := newFSMBench(0, 2)
	b.phi1(0xA)
	b.phi1(0x5)
	b.step()
	if s := b.f.State(); s != pinsim.DriveData {
		t.Fatalf("expected DriveData, got %v", s)
	}
	b.phi2()
	if s, w := b.f.State(), b.f.Window(); s != pinsim.DriveData || w != 1 {
		t.Fatalf("after one window: %v, window %d", s, w)
	}
	// Φ1 edges are ignored in the data phase
	b.phi1(0)
	if s := b.f.State(); s != pinsim.DriveData {
		t.Fatalf("Φ1 edge left data phase: %v", s)
	}
	b.phi2()
	if s := b.f.State(); s != pinsim.Idle {
		t.Fatalf("expected Idle, got %v", s)
	}
}

func Test_TimingFSM_reset(t *testing.T) {
	steps := []struct {
		name  string
		setup func(b *fsmBench)
	}{
		{"Idle", func(b *fsmBench) {}},
		{"AddressPhase", func(b *fsmBench) { b.phi1(0x1) }},
		{"WaitLatency", func(b *fsmBench) { b.phi1(0x1); b.phi1(0x3) }},
		{"DriveData", func(b *fsmBench) { b.phi1(0x1); b.phi1(0x3); b.now = b.now.Add(time.Second); b.step() }},
	}
	for i, st := range steps {
		for _, deselect := range []bool{false, true} {
			b := newFSMBench(time.Microsecond, 1)
			st.setup(b)
			if s := b.f.State(); s != pinsim.State(i) {
				t.Fatalf("%s: setup reached %v", st.name, s)
			}
			if deselect {
				b.in.Select = false
			} else {
				b.in.Reset = true
			}
			b.step()
			if s := b.f.State(); s != pinsim.Idle {
				t.Fatalf("%s (deselect=%v): expected Idle, got %v", st.name, deselect, s)
			}
			if _, hok, _, lok := b.f.Nibbles(); hok || lok || b.f.AddressReady() {
				t.Fatalf("%s: holders or ready flag not cleared", st.name)
			}
			if _, ok := b.f.LatchTime(); ok {
				t.Fatalf("%s: latch time not cleared", st.name)
			}
		}
	}
}

func Test_TimingFSM_resetWins(t *testing.T) {
	b := newFSMBench(0, 1)
	b.in.Reset = true
	b.phi1(0x1)
	if s := b.f.State(); s != pinsim.Idle {
		t.Fatalf("latched while in reset: %v", s)
	}
}

func Test_TimingFSM_Arm(t *testing.T) {
	f := pinsim.NewTimingFSM(100*time.Nanosecond, 0)
	now := time.Unix(0, 0)
	f.Arm(now)
	if f.State() != pinsim.WaitLatency || f.AddressReady() {
		t.Fatal("Arm did not start a wait without address")
	}
	if f.AccessElapsed(now.Add(99)) || !f.AccessElapsed(now.Add(100)) {
		t.Fatal("AccessElapsed mismatch")
	}
	if f.MayDrive(true, pinsim.Low, now.Add(time.Second)) {
		t.Fatal("MayDrive() = true without address")
	}
}

func Test_TimingFSM_edges(t *testing.T) {
	var f pinsim.TimingFSM
	if e := f.Sample(pinsim.High, pinsim.High); e.Phi1Rise || e.Phi2Rise {
		t.Fatal("edge from HighZ reported")
	}
	f.Sample(pinsim.Low, pinsim.Low)
	if e := f.Sample(pinsim.High, pinsim.Low); !e.Phi1Rise || e.Phi1Fall || e.Phi2Rise {
		t.Fatalf("unexpected edges %+v", e)
	}
	if e := f.Sample(pinsim.High, pinsim.Low); e.Phi1Rise {
		t.Fatal("edge reported twice")
	}
	if e := f.Sample(pinsim.Low, pinsim.High); !e.Phi1Fall || !e.Phi2Rise {
		t.Fatalf("unexpected edges %+v", e)
	}
	if e := f.Sample(pinsim.Low, pinsim.Low); !e.Phi2Fall {
		t.Fatalf("unexpected edges %+v", e)
	}
}
