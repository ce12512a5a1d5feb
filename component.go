// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import (
	"io"
	"log"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// A Component is a unit of concurrent execution in a circuit. Components only
// communicate through the Pins they own.
//
// Update must advance the component's state once, based on current pin levels
// and elapsed time, and must never block. Run loops on Update until Stop is
// called. Stop is advisory: Run may complete one more Update after Stop
// returns, but outputs are released (HighZ) by Stop itself.
//
type Component interface {
	Name() string
	Pins() map[string]*Pin
	Pin(name string) (*Pin, error)
	Update()
	Run()
	Stop()
	IsRunning() bool
}

// An Updater is anything with an Update method. See Base.RunLoop.
//
type Updater interface {
	Update()
}

// Default pacing bounds for run loops.
//
const (
	MinPacing     = time.Microsecond
	DefaultPacing = 10 * time.Microsecond
)

// PacingFor returns the run loop pacing for a component whose fastest timing
// interval is d: 1% of d, but no less than MinPacing.
//
func PacingFor(d time.Duration) time.Duration {
	p := d / 100
	if p < MinPacing {
		p = MinPacing
	}
	return p
}

// Base implements the bookkeeping shared by all components: name, owned pins,
// running flag, clock, pacing and logging. Concrete components embed a *Base
// and forward Run to RunLoop with themselves as the Updater.
//
type Base struct {
	name    string
	pins    map[string]*Pin
	order   []string
	running atomic.Bool
	stopped atomic.Bool

	Clock  Clock
	Pacing time.Duration
	Log    *log.Logger
}

// NewBase returns a Base owning a fresh pin for each of the given names.
// Bus notation is expanded, so "D[4]" allocates D[0] through D[3].
// A nil clock selects RealClock and a nil logger discards output.
//
func NewBase(name string, clk Clock, lg *log.Logger, pins ...string) *Base {
	return newBase(name, clk, lg, ExpandBus(pins...))
}

// newBase is NewBase without bus expansion.
func newBase(name string, clk Clock, lg *log.Logger, pins []string) *Base {
	if clk == nil {
		clk = RealClock{}
	}
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	b := &Base{
		name:   name,
		pins:   make(map[string]*Pin),
		Clock:  clk,
		Pacing: DefaultPacing,
		Log:    lg,
	}
	for _, n := range pins {
		if _, ok := b.pins[n]; ok {
			continue
		}
		b.pins[n] = NewPin(n)
		b.order = append(b.order, n)
	}
	return b
}

// Clone returns a Base with the same name, pin names, clock, pacing and
// logger, but fresh unconnected pins and a cleared running flag.
//
func (b *Base) Clone() *Base {
	c := newBase(b.name, b.Clock, b.Log, b.order)
	c.Pacing = b.Pacing
	return c
}

// Name returns the component name.
//
func (b *Base) Name() string { return b.name }

// Pins returns a copy of the component's pin map.
//
func (b *Base) Pins() map[string]*Pin {
	m := make(map[string]*Pin, len(b.pins))
	for k, v := range b.pins {
		m[k] = v
	}
	return m
}

// PinNames returns the pin names in declaration order.
//
func (b *Base) PinNames() []string {
	return append([]string(nil), b.order...)
}

// Pin returns the named pin.
//
func (b *Base) Pin(name string) (*Pin, error) {
	p, ok := b.pins[name]
	if !ok {
		return nil, errors.New("pin " + name + " does not exist in " + b.name)
	}
	return p, nil
}

// MustPin is like Pin but panics if the pin does not exist. It is meant for
// component constructors where pin names are constants.
//
func (b *Base) MustPin(name string) *Pin {
	p, err := b.Pin(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Bus returns the pins name[0], name[1], ... up to the first missing index.
//
func (b *Base) Bus(name string) ([]*Pin, error) {
	var out []*Pin
	for i := 0; ; i++ {
		p, ok := b.pins[BusPinName(name, i)]
		if !ok {
			break
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("bus " + name + " does not exist in " + b.name)
	}
	return out, nil
}

// Drive asserts v on pin p under the component's driver id.
//
func (b *Base) Drive(p *Pin, v Value) {
	p.SetDriver(b.name, v, Standard)
}

// Release writes HighZ on pin p under the component's driver id.
//
func (b *Base) Release(ps ...*Pin) {
	for _, p := range ps {
		p.SetHighZ(b.name)
	}
}

// ReleaseAll releases the component's driver on every pin it owns.
//
func (b *Base) ReleaseAll() {
	names := make([]string, 0, len(b.pins))
	for n := range b.pins {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		b.pins[n].SetHighZ(b.name)
	}
}

// IsRunning reports whether the run loop is active.
//
func (b *Base) IsRunning() bool { return b.running.Load() }

// Stopped reports whether Stop has been called. A stopped component cannot be
// restarted, use Clone to get a new instance.
//
func (b *Base) Stopped() bool { return b.stopped.Load() }

// RunLoop sets the running flag and calls u.Update followed by a pacing sleep
// until Stop is called, then releases the component's pins once more in case
// the last Update drove them after Stop. It returns immediately if the
// component was already stopped or is already running.
//
func (b *Base) RunLoop(u Updater) {
	if b.stopped.Load() || !b.running.CompareAndSwap(false, true) {
		return
	}
	// Stop may have been called between the two checks above.
	if b.stopped.Load() {
		b.running.Store(false)
		return
	}
	b.Log.Printf("%s: running", b.name)
	pacing := b.Pacing
	if pacing <= 0 {
		pacing = DefaultPacing
	}
	for b.running.Load() {
		u.Update()
		b.Clock.Sleep(pacing)
	}
	b.ReleaseAll()
	b.Log.Printf("%s: stopped", b.name)
}

// Stop clears the running flag and releases every pin driven by the
// component. It does not wait for the run loop to exit.
//
func (b *Base) Stop() {
	b.stopped.Store(true)
	b.running.Store(false)
	b.ReleaseAll()
}

func yield() { runtime.Gosched() }
