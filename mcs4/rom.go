// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcs4

import (
	"github.com/pkg/errors"
)

// ROMSize is the default and maximum ROM size in bytes.
//
const ROMSize = 256

// ROM is a 4001 style mask ROM of 8-bit words.
//
//	Pins: D[0..3] (io), PHI1, PHI2, SEL, RESET
//
// After the address is latched and the access time has elapsed, the ROM drives
// the high nibble of the addressed word during the first Φ2 window and the low
// nibble during the second, then returns to Idle.
//
type ROM struct {
	memCore
	pins memPins
	data []byte
}

// NewROM returns a blank ROM. cfg.Size defaults to ROMSize and cannot be larger.
//
func NewROM(name string, cfg Config) (*ROM, error) {
	if cfg.Size == 0 {
		cfg.Size = ROMSize
	}
	if cfg.Size < 0 || cfg.Size > ROMSize {
		return nil, errors.Errorf("%s: invalid ROM size %d", name, cfg.Size)
	}
	r := &ROM{data: make([]byte, cfg.Size)}
	if err := r.init(name, cfg, 2, &r.pins); err != nil {
		return nil, err
	}
	return r, nil
}

// Clone returns a new ROM with the same name, configuration and contents, with
// fresh unconnected pins.
//
func (r *ROM) Clone() *ROM {
	c, err := NewROM(r.Name(), r.cfg)
	if err != nil {
		panic(err)
	}
	r.mu.Lock()
	copy(c.data, r.data)
	r.mu.Unlock()
	return c
}

// Size returns the ROM size in bytes.
//
func (r *ROM) Size() int { return len(r.data) }

// Load programs the ROM with data, starting at address 0.
//
func (r *ROM) Load(data []byte) error {
	if len(data) > len(r.data) {
		return errors.Errorf("%s: %d bytes do not fit in %d bytes ROM", r.Name(), len(data), len(r.data))
	}
	r.mu.Lock()
	copy(r.data, data)
	r.mu.Unlock()
	return nil
}

// Peek returns the byte at addr.
//
func (r *ROM) Peek(addr int) (byte, error) {
	if addr < 0 || addr >= len(r.data) {
		return 0, errors.Errorf("%s: address %#x out of range", r.Name(), addr)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[addr], nil
}

// Update implements pinsim.Component.
//
func (r *ROM) Update() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Stopped() {
		return
	}
	now := r.Clock.Now()
	in := r.inputs(&r.pins)
	r.step(now, in)

	addr, _ := r.fsm.Address()
	if !r.fsm.MayDrive(in.Select, in.Phi1, now) || int(addr) >= len(r.data) {
		r.release(&r.pins)
		return
	}
	w := r.data[addr]
	if r.fsm.Window() == 0 {
		r.driveNibble(&r.pins, w>>4)
	} else {
		r.driveNibble(&r.pins, w&0x0F)
	}
}

// Run implements pinsim.Component.
//
func (r *ROM) Run() { r.RunLoop(r) }

// Stop implements pinsim.Component.
//
func (r *ROM) Stop() {
	r.Base.Stop()
	r.mu.Lock()
	r.fsm.Reset()
	r.mu.Unlock()
}
