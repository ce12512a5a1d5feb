// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import (
	"sort"
	"sync"
	"weak"

	"github.com/pkg/errors"
)

// A Pin is a shared signal node. Any number of drivers, identified by name,
// can assert a Value with some Strength on a pin. Reading a pin resolves the
// drivers of the pin itself and of all the pins transitively connected to it.
//
// Connections between pins are symmetric and non-owning: a pin does not keep
// its peers alive. The pin is freed once the component owning it is gone,
// regardless of how many peers still reference it.
//
// All methods are safe for concurrent use.
//
type Pin struct {
	name string

	mu      sync.Mutex
	drivers map[string]Drive
	peers   map[weak.Pointer[Pin]]struct{}
}

// NewPin returns a new undriven, unconnected pin.
//
func NewPin(name string) *Pin {
	return &Pin{
		name:    name,
		drivers: make(map[string]Drive),
		peers:   make(map[weak.Pointer[Pin]]struct{}),
	}
}

// Name returns the pin name. It is also the pin's default driver id.
//
func (p *Pin) Name() string { return p.name }

func (p *Pin) String() string {
	return p.name + "=" + p.Read().String()
}

// SetDriver upserts the driver id with the given value and strength.
// An empty id selects the pin's default driver. SetDriver never removes a
// driver, use SetHighZ or RemoveDriver for that.
//
func (p *Pin) SetDriver(id string, v Value, s Strength) {
	if id == "" {
		id = p.name
	}
	p.mu.Lock()
	p.drivers[id] = Drive{v, s}
	p.mu.Unlock()
}

// Set drives v on the pin's default driver at Standard strength. This is the
// two-level model used by components that do not care about strengths.
//
func (p *Pin) Set(v Value) { p.SetDriver("", v, Standard) }

// SetHighZ releases driver id by writing HighZ on it.
//
func (p *Pin) SetHighZ(id string) { p.SetDriver(id, HighZ, HighImpedance) }

// RemoveDriver deletes the driver id from the pin.
//
func (p *Pin) RemoveDriver(id string) {
	if id == "" {
		id = p.name
	}
	p.mu.Lock()
	delete(p.drivers, id)
	p.mu.Unlock()
}

// Drivers returns a snapshot of the pin's own drivers, excluding drivers of
// connected peers.
//
func (p *Pin) Drivers() map[string]Drive {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := make(map[string]Drive, len(p.drivers))
	for id, d := range p.drivers {
		m[id] = d
	}
	return m
}

// DriverIDs returns the sorted ids of the pin's own drivers.
//
func (p *Pin) DriverIDs() []string {
	p.mu.Lock()
	ids := make([]string, 0, len(p.drivers))
	for id := range p.drivers {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Read returns the resolved value of the node. See Resolve for the resolution
// rules. A node with no active driver reads HighZ.
//
func (p *Pin) Read() Value {
	return Resolve(p.net())
}

// net collects the drives of p and all its transitively connected peers.
// Only one pin lock is held at any time.
func (p *Pin) net() []Drive {
	var ds []Drive
	seen := map[*Pin]struct{}{p: {}}
	queue := []*Pin{p}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		q.mu.Lock()
		for _, d := range q.drivers {
			ds = append(ds, d)
		}
		for wp := range q.peers {
			peer := wp.Value()
			if peer == nil {
				delete(q.peers, wp)
				continue
			}
			if _, ok := seen[peer]; !ok {
				seen[peer] = struct{}{}
				queue = append(queue, peer)
			}
		}
		q.mu.Unlock()
	}
	return ds
}

// Connect connects p and peer. Connecting already connected pins is a no-op.
//
func (p *Pin) Connect(peer *Pin) error {
	if peer == nil {
		return errors.New("connect " + p.name + ": nil pin")
	}
	if peer == p {
		return errors.New("pin " + p.name + " connected to itself")
	}
	p.link(peer)
	peer.link(p)
	return nil
}

// Disconnect removes the connection between p and peer. It returns an error if
// they are not connected.
//
func (p *Pin) Disconnect(peer *Pin) error {
	if peer == nil || !p.unlink(peer) {
		return errors.Errorf("pin %s not connected to %v", p.name, pinName(peer))
	}
	peer.unlink(p)
	return nil
}

// Connected reports whether p is directly connected to peer.
//
func (p *Pin) Connected(peer *Pin) bool {
	if peer == nil {
		return false
	}
	p.mu.Lock()
	_, ok := p.peers[weak.Make(peer)]
	p.mu.Unlock()
	return ok
}

// Peers returns the live pins directly connected to p.
//
func (p *Pin) Peers() []*Pin {
	p.mu.Lock()
	defer p.mu.Unlock()
	ps := make([]*Pin, 0, len(p.peers))
	for wp := range p.peers {
		if peer := wp.Value(); peer != nil {
			ps = append(ps, peer)
		}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].name < ps[j].name })
	return ps
}

func (p *Pin) link(peer *Pin) {
	p.mu.Lock()
	p.peers[weak.Make(peer)] = struct{}{}
	p.mu.Unlock()
}

func (p *Pin) unlink(peer *Pin) bool {
	wp := weak.Make(peer)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.peers[wp]; !ok {
		return false
	}
	delete(p.peers, wp)
	return true
}

func pinName(p *Pin) string {
	if p == nil {
		return "<nil>"
	}
	return p.name
}
