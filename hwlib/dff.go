// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"sync"

	"github.com/db47h/pinsim"
)

// DFF is a clocked data flip flop.
//
//	Inputs: IN, CLK
//	Outputs: OUT
//	Function: OUT(t) = IN(t-1) // where t is the current clock cycle.
//
// OUT is released until the first rising edge of CLK.
//
type DFF struct {
	*pinsim.Base
	in, clk, out *pinsim.Pin

	mu    sync.Mutex
	edges pinsim.TimingFSM
	cur   pinsim.Value
}

// NewDFF returns a D flip flop.
//
func NewDFF(name string, clk pinsim.Clock) *DFF {
	d := &DFF{Base: pinsim.NewBase(name, clk, nil, pIn, pClk, pOut)}
	d.in, d.clk, d.out = d.MustPin(pIn), d.MustPin(pClk), d.MustPin(pOut)
	return d
}

// Clone returns a new D flip flop with fresh pins and no captured value.
//
func (d *DFF) Clone() *DFF {
	c := &DFF{Base: d.Base.Clone()}
	c.in, c.clk, c.out = c.MustPin(pIn), c.MustPin(pClk), c.MustPin(pOut)
	return c
}

// Update implements pinsim.Component.
//
func (d *DFF) Update() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Stopped() {
		return
	}
	// raising edge?
	if d.edges.Sample(d.clk.Read(), pinsim.HighZ).Phi1Rise {
		d.cur = d.in.Read()
	}
	if d.cur == pinsim.HighZ {
		d.Release(d.out)
		return
	}
	d.Drive(d.out, d.cur)
}

// Run implements pinsim.Component.
//
func (d *DFF) Run() { d.RunLoop(d) }
