// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"sync"

	"github.com/db47h/pinsim"
)

type fetcherPins struct {
	D     [4]*pinsim.Pin `hw:"io"`
	Phi1  *pinsim.Pin    `hw:"in,PHI1"`
	Phi2  *pinsim.Pin    `hw:"in,PHI2"`
	ROM   *pinsim.Pin    `hw:"out,CMROM"`
	RAM   *pinsim.Pin    `hw:"out,CMRAM"`
	RD    *pinsim.Pin    `hw:"out"`
	Reset *pinsim.Pin    `hw:"out,RESET"`
}

// op is a single memory cycle.
type op struct {
	ram     bool // RAM cycle, ROM otherwise
	write   bool
	addr    uint8
	data    uint8 // nibble to write
	windows int
}

// cycle states
const (
	fIdle = iota
	fAddrHi
	fAddrLo
	fData
	fDone
)

// fetcher is a minimal bus master: it copies the low nibble of the first n
// ROM bytes to RAM, one memory cycle at a time, then calls done.
//
// All bus changes happen on clock edges: selects and the address high nibble
// on a Φ2 rising edge, the low nibble and write data on Φ1 falling edges and
// read data is sampled on Φ2 rising edges.
type fetcher struct {
	*pinsim.Base
	pins fetcherPins

	mu       sync.Mutex
	edges    pinsim.TimingFSM
	n        int
	cur      op
	started  bool
	finished bool
	state    int
	window   int
	word     uint8
	done     func()
	copied   []uint8
}

func newFetcher(name string, n int, clk pinsim.Clock, done func()) *fetcher {
	f := &fetcher{n: n, done: done}
	b, err := pinsim.NewBaseFor(name, clk, nil, &f.pins)
	if err != nil {
		panic(err)
	}
	f.Base = b
	for _, p := range []*pinsim.Pin{f.pins.ROM, f.pins.RAM, f.pins.RD, f.pins.Reset} {
		f.Drive(p, pinsim.Low)
	}
	f.Release(f.pins.D[:]...)
	return f
}

func (f *fetcher) put(n uint8) {
	for i, d := range f.pins.D {
		f.Drive(d, pinsim.Level(n&(1<<uint(i)) != 0))
	}
}

func (f *fetcher) read() uint8 {
	var n uint8
	for i, d := range f.pins.D {
		if d.Read() == pinsim.High {
			n |= 1 << uint(i)
		}
	}
	return n
}

// schedule returns the next cycle: each ROM read is followed by a RAM write
// at the same address. ok is false once every byte is copied.
func (f *fetcher) schedule() (o op, ok bool) {
	var a int
	if f.started {
		if !f.cur.ram {
			return op{ram: true, write: true, addr: f.cur.addr, data: f.word & 0x0F, windows: 1}, true
		}
		a = int(f.cur.addr) + 1
	}
	if a >= f.n {
		return op{}, false
	}
	f.started = true
	return op{addr: uint8(a), windows: 2}, true
}

func (f *fetcher) start(o op) {
	f.cur = o
	f.state = fAddrHi
	f.window = 0
	f.word = 0
	f.Drive(f.pins.ROM, pinsim.Level(!o.ram))
	f.Drive(f.pins.RAM, pinsim.Level(o.ram))
	f.Drive(f.pins.RD, pinsim.Level(!o.write))
	f.put(o.addr >> 4)
}

func (f *fetcher) Update() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Stopped() {
		return
	}
	e := f.edges.Sample(f.pins.Phi1.Read(), f.pins.Phi2.Read())
	switch {
	case e.Phi2Rise && (f.state == fIdle || f.state == fDone):
		o, ok := f.schedule()
		if !ok {
			if !f.finished {
				f.finished = true
				f.Drive(f.pins.ROM, pinsim.Low)
				f.Drive(f.pins.RAM, pinsim.Low)
				f.Release(f.pins.D[:]...)
				f.Log.Printf("%s: copied %d nibbles", f.Name(), len(f.copied))
				if f.done != nil {
					go f.done()
				}
			}
			return
		}
		f.start(o)
	case e.Phi1Fall && f.state == fAddrHi:
		f.put(f.cur.addr & 0x0F)
		f.state = fAddrLo
	case e.Phi1Fall && f.state == fAddrLo:
		if f.cur.write {
			f.put(f.cur.data)
		} else {
			f.Release(f.pins.D[:]...)
		}
		f.state = fData
	case e.Phi2Rise && f.state == fData && !f.cur.write:
		f.word = f.word<<4 | f.read()
	case e.Phi2Fall && f.state == fData:
		f.window++
		if f.window >= f.cur.windows {
			if f.cur.write {
				f.copied = append(f.copied, f.cur.data)
			} else {
				f.Log.Printf("%s: ROM[%#02x] = %#02x", f.Name(), f.cur.addr, f.word)
			}
			f.state = fDone
		}
	}
}

func (f *fetcher) Run() { f.RunLoop(f) }

// Copied returns the nibbles written to RAM so far.
func (f *fetcher) Copied() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint8(nil), f.copied...)
}
