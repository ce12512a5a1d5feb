// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// A System is a set of components and buses run together. Each component runs
// on its own goroutine and each bus on its own pump goroutine. There is no
// global tick: components only synchronize through pins, so updates of two
// components in the same instant happen in no particular order.
//
type System struct {
	Log *log.Logger

	mu    sync.Mutex
	comps []Component
	names map[string]Component
	buses []*Bus
	stop  chan struct{}
}

// NewSystem returns an empty system. A nil logger discards output.
//
func NewSystem(lg *log.Logger) *System {
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	return &System{Log: lg, names: make(map[string]Component)}
}

// Add adds components to the system. Component names must be unique.
//
func (s *System) Add(cs ...Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cs {
		if c == nil {
			return errors.New("nil component")
		}
		if _, ok := s.names[c.Name()]; ok {
			return errors.New("duplicate component name " + c.Name())
		}
		if s.busNamed(c.Name()) {
			return errors.New("component name " + c.Name() + " clashes with a bus")
		}
		s.names[c.Name()] = c
		s.comps = append(s.comps, c)
	}
	return nil
}

// AddBus adds buses to the system.
//
func (s *System) AddBus(bs ...*Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bs {
		if b == nil {
			return errors.New("nil bus")
		}
		if s.busNamed(b.Name()) {
			return errors.New("duplicate bus " + b.Name())
		}
		if _, ok := s.names[b.Name()]; ok {
			return errors.New("bus name " + b.Name() + " clashes with a component")
		}
		s.buses = append(s.buses, b)
	}
	return nil
}

// busNamed reports whether a bus named name exists. Must be called with s.mu
// held.
func (s *System) busNamed(name string) bool {
	for _, b := range s.buses {
		if b.Name() == name {
			return true
		}
	}
	return false
}

// Component returns the named component.
//
func (s *System) Component(name string) (Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.names[name]
	if !ok {
		return nil, errors.New("component " + name + " does not exist")
	}
	return c, nil
}

// Components returns the system's components in insertion order.
//
func (s *System) Components() []Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Component(nil), s.comps...)
}

// Buses returns the system's buses in insertion order.
//
func (s *System) Buses() []*Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Bus(nil), s.buses...)
}

// Connect connects pins of the named components. See Connect.
//
func (s *System) Connect(a, b string, conns string) error {
	ca, err := s.Component(a)
	if err != nil {
		return err
	}
	cb, err := s.Component(b)
	if err != nil {
		return err
	}
	return Connect(ca, cb, conns)
}

// Run starts all components and buses and blocks until ctx is cancelled or
// Stop is called. It then stops every component, deactivates every bus and
// waits for all goroutines to return. A component that panics is reported as
// an error and stops the whole system.
//
func (s *System) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return errors.New("system already running")
	}
	stop := make(chan struct{})
	s.stop = stop
	comps := append([]Component(nil), s.comps...)
	buses := append([]*Bus(nil), s.buses...)
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range comps {
		c := c
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("component %s: %v", c.Name(), r)
				}
			}()
			c.Run()
			return nil
		})
	}
	for _, b := range buses {
		b := b
		g.Go(func() error {
			b.Run(stop)
			return nil
		})
	}
	s.Log.Printf("system: %d components, %d buses running", len(comps), len(buses))

	select {
	case <-ctx.Done():
	case <-stop:
	}
	s.halt(comps)
	err := g.Wait()

	s.mu.Lock()
	s.stop = nil
	s.mu.Unlock()
	s.Log.Print("system: stopped")
	return err
}

func (s *System) halt(comps []Component) {
	s.mu.Lock()
	if s.stop != nil {
		select {
		case <-s.stop:
		default:
			close(s.stop)
		}
	}
	s.mu.Unlock()
	for _, c := range comps {
		c.Stop()
	}
}

// Stop asks a running system to stop. Run returns once everything is stopped.
//
func (s *System) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// CheckContention runs the contention diagnostic of every bus and returns the
// first error.
//
func (s *System) CheckContention() error {
	for _, b := range s.Buses() {
		if err := b.CheckContention(); err != nil {
			return err
		}
	}
	return nil
}
