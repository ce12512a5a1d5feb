// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import (
	"strings"
	"sync"
	"time"
	"weak"

	"github.com/pkg/errors"
)

// A Bus arbitrates between the drivers of a set of member pins. On each
// Update it resolves a single wired value from the members' own drivers and
// drives it back onto every member under a driver named after the bus.
//
// The bus never reads its own driver when resolving, so there is no feedback
// loop: resolving twice without any member write yields the same value.
//
// Bus membership is not a pin connection: pins on either side of a bus are
// separate nets that only see each other through the bus driver. Like pin
// connections, membership does not keep pins alive.
//
type Bus struct {
	name   string
	settle time.Duration
	clock  Clock

	mu         sync.Mutex
	members    []weak.Pointer[Pin]
	value      Value
	active     bool
	lastChange time.Time
	changed    bool // lastChange is valid
}

// NewBus returns a new active bus. settle is the minimum time between two
// resolutions that change the bus value. A nil clock selects RealClock.
//
// The bus name is also its driver id on member pins, and drivers with that id
// are ignored when resolving. A component must not share its name with a bus
// it drives. System rejects such clashes.
//
func NewBus(name string, settle time.Duration, clk Clock) *Bus {
	if clk == nil {
		clk = RealClock{}
	}
	return &Bus{
		name:   name,
		settle: settle,
		clock:  clk,
		active: true,
	}
}

// Name returns the bus name. It is also the driver id used on member pins.
//
func (b *Bus) Name() string { return b.name }

// Settle returns the settlement time.
//
func (b *Bus) Settle() time.Duration { return b.settle }

// Value returns the last resolved value.
//
func (b *Bus) Value() Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// Active reports whether the bus is active.
//
func (b *Bus) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Members returns the live members, in connection order.
//
func (b *Bus) Members() []*Pin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live()
}

// live returns the live members and drops the dead ones. Must be called with
// b.mu held.
func (b *Bus) live() []*Pin {
	ps := make([]*Pin, 0, len(b.members))
	ms := b.members[:0]
	for _, wp := range b.members {
		if p := wp.Value(); p != nil {
			ps = append(ps, p)
			ms = append(ms, wp)
		}
	}
	for i := len(ms); i < len(b.members); i++ {
		b.members[i] = weak.Pointer[Pin]{}
	}
	b.members = ms
	return ps
}

func (b *Bus) indexOf(p *Pin) int {
	wp := weak.Make(p)
	for i, m := range b.members {
		if m == wp {
			return i
		}
	}
	return -1
}

// ConnectPin adds p to the bus. It fails if p is already a member.
//
func (b *Bus) ConnectPin(p *Pin) error {
	if p == nil {
		return errors.New("bus " + b.name + ": nil pin")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexOf(p) >= 0 {
		return errors.New("pin " + p.Name() + " already connected to bus " + b.name)
	}
	b.members = append(b.members, weak.Make(p))
	if b.value != HighZ {
		p.SetDriver(b.name, b.value, Standard)
	}
	return nil
}

// DisconnectPin removes p from the bus and drops the bus driver from p. It
// fails if p is not a member.
//
func (b *Bus) DisconnectPin(p *Pin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(p)
	if i < 0 {
		return errors.New("pin " + pinName(p) + " not connected to bus " + b.name)
	}
	copy(b.members[i:], b.members[i+1:])
	b.members[len(b.members)-1] = weak.Pointer[Pin]{}
	b.members = b.members[:len(b.members)-1]
	p.RemoveDriver(b.name)
	return nil
}

// resolve computes the bus value from the members' own drivers, ignoring the
// bus's own driver entries.
func (b *Bus) resolve(members []*Pin) Value {
	var ds []Drive
	for _, m := range members {
		for id, d := range m.Drivers() {
			if id == b.name {
				continue
			}
			ds = append(ds, d)
		}
	}
	return Resolve(ds)
}

// propagate drives v onto every member. Must be called with b.mu held.
func (b *Bus) propagate(v Value) {
	for _, m := range b.live() {
		if v == HighZ {
			m.SetHighZ(b.name)
		} else {
			m.SetDriver(b.name, v, Standard)
		}
	}
}

// Update resolves the bus value. An inactive bus is forced to HighZ. Within
// the settlement time of the last change, Update does nothing.
//
func (b *Bus) Update() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		b.value = HighZ
		b.propagate(HighZ)
		return
	}
	now := b.clock.Now()
	if b.changed && now.Sub(b.lastChange) < b.settle {
		return
	}
	v := b.resolve(b.live())
	if v == b.value {
		return
	}
	b.value = v
	b.lastChange = now
	b.changed = true
	b.propagate(v)
}

// SetActive activates or deactivates the bus. Deactivating immediately forces
// the bus value to HighZ on all members.
//
func (b *Bus) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = active
	if !active {
		b.value = HighZ
		b.changed = false
		b.propagate(HighZ)
	}
}

// CheckContention reports whether the bus members currently disagree: it
// returns an error if at least one member reads High while another reads Low.
// Strengths are not considered. This is a diagnostic and is never called by
// Update.
//
func (b *Bus) CheckContention() error {
	var hi, lo []string
	for _, m := range b.Members() {
		switch m.Read() {
		case High:
			hi = append(hi, m.Name())
		case Low:
			lo = append(lo, m.Name())
		}
	}
	if len(hi) > 0 && len(lo) > 0 {
		return errors.Errorf("bus %s contention: High on %s, Low on %s",
			b.name, strings.Join(hi, ","), strings.Join(lo, ","))
	}
	return nil
}

// Run pumps Update until stop is closed, pacing itself at 1% of the
// settlement time. The bus is deactivated on return.
//
func (b *Bus) Run(stop <-chan struct{}) {
	pacing := PacingFor(b.settle)
	for {
		select {
		case <-stop:
			b.SetActive(false)
			return
		default:
		}
		b.Update()
		b.clock.Sleep(pacing)
	}
}
