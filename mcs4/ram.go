// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcs4

import (
	"github.com/db47h/pinsim"
	"github.com/pkg/errors"
)

// RAMSize is the default RAM size in nibbles: 4 registers of 16 main and 4
// status characters.
//
const RAMSize = 80

type ramPins struct {
	memPins
	WE *pinsim.Pin `hw:"in,WE"`
}

// RAM is a 4002 style data RAM of 4-bit words.
//
//	Pins: D[0..3] (io), PHI1, PHI2, SEL, RESET, WE
//
// The level of WE when the address latch completes selects the operation.
// Reads (WE Low) drive the addressed nibble during one Φ2 window. Writes (WE
// High) sample the data bus on the Φ2 falling edge that ends the window and
// never drive it. Addresses past the RAM size are ignored.
//
type RAM struct {
	memCore
	pins  ramPins
	data  []uint8
	write bool
}

// NewRAM returns a cleared RAM. cfg.Size defaults to RAMSize and is at most
// 256.
//
func NewRAM(name string, cfg Config) (*RAM, error) {
	if cfg.Size == 0 {
		cfg.Size = RAMSize
	}
	if cfg.Size < 0 || cfg.Size > 256 {
		return nil, errors.Errorf("%s: invalid RAM size %d", name, cfg.Size)
	}
	r := &RAM{data: make([]uint8, cfg.Size)}
	if err := r.init(name, cfg, 1, &r.pins); err != nil {
		return nil, err
	}
	return r, nil
}

// Clone returns a new RAM with the same name and configuration, fresh pins
// and cleared contents.
//
func (r *RAM) Clone() *RAM {
	c, err := NewRAM(r.Name(), r.cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Size returns the RAM size in nibbles.
//
func (r *RAM) Size() int { return len(r.data) }

// Peek returns the nibble at addr.
//
func (r *RAM) Peek(addr int) (uint8, error) {
	if addr < 0 || addr >= len(r.data) {
		return 0, errors.Errorf("%s: address %#x out of range", r.Name(), addr)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[addr], nil
}

// Poke sets the nibble at addr to v&0xF.
//
func (r *RAM) Poke(addr int, v uint8) error {
	if addr < 0 || addr >= len(r.data) {
		return errors.Errorf("%s: address %#x out of range", r.Name(), addr)
	}
	r.mu.Lock()
	r.data[addr] = v & 0x0F
	r.mu.Unlock()
	return nil
}

// Writing reports whether the current operation is a write.
//
func (r *RAM) Writing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write && r.fsm.State() != pinsim.Idle
}

// Update implements pinsim.Component.
//
func (r *RAM) Update() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Stopped() {
		return
	}
	now := r.Clock.Now()
	in := r.inputs(&r.pins.memPins)
	prev := r.step(now, in)

	if prev == pinsim.AddressPhase && r.fsm.State() == pinsim.WaitLatency {
		r.write = r.pins.WE.Read() == pinsim.High
	}
	if addr, ok := r.fsm.Done(); ok && r.write {
		if int(addr) < len(r.data) {
			r.data[addr] = in.Data
			r.Log.Printf("%s: write %#02x=%#x", r.Name(), addr, in.Data)
		}
	}
	if r.fsm.State() == pinsim.Idle {
		r.write = false
	}

	addr, _ := r.fsm.Address()
	if r.write || !r.fsm.MayDrive(in.Select, in.Phi1, now) || int(addr) >= len(r.data) {
		r.release(&r.pins.memPins)
		return
	}
	r.driveNibble(&r.pins.memPins, r.data[addr])
}

// Run implements pinsim.Component.
//
func (r *RAM) Run() { r.RunLoop(r) }

// Stop implements pinsim.Component.
//
func (r *RAM) Stop() {
	r.Base.Stop()
	r.mu.Lock()
	r.fsm.Reset()
	r.write = false
	r.mu.Unlock()
}
