// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"testing"

	"github.com/db47h/pinsim"
	"github.com/db47h/pinsim/hwlib"
	"github.com/db47h/pinsim/hwtest"
)

// inputs returns external pins connected to the named pins of c.
func inputs(t *testing.T, c pinsim.Component, names ...string) []*pinsim.Pin {
	t.Helper()
	ps := make([]*pinsim.Pin, len(names))
	for i, n := range names {
		p, err := c.Pin(n)
		if err != nil {
			t.Fatal(err)
		}
		ps[i] = pinsim.NewPin("ext_" + n)
		if err = ps[i].Connect(p); err != nil {
			t.Fatal(err)
		}
	}
	return ps
}

func Test_gates(t *testing.T) {
	data := []struct {
		name  string
		gate  func(string, pinsim.Clock) *hwlib.Gate
		truth [4]bool // 00, 01, 10, 11
	}{
		{"AND", hwlib.And, [4]bool{false, false, false, true}},
		{"NAND", hwlib.Nand, [4]bool{true, true, true, false}},
		{"OR", hwlib.Or, [4]bool{false, true, true, true}},
		{"NOR", hwlib.Nor, [4]bool{true, false, false, false}},
		{"XOR", hwlib.Xor, [4]bool{false, true, true, false}},
		{"XNOR", hwlib.Xnor, [4]bool{true, false, false, true}},
	}
	for _, td := range data {
		t.Run(td.name, func(t *testing.T) {
			g := td.gate("g", nil)
			if g.Kind() != td.name {
				t.Fatalf("kind %s", g.Kind())
			}
			in := inputs(t, g, "A", "B")
			out, _ := g.Pin("OUT")
			for i, want := range td.truth {
				in[0].Set(pinsim.Level(i&2 != 0))
				in[1].Set(pinsim.Level(i&1 != 0))
				g.Update()
				hwtest.ExpectValue(t, out, pinsim.Level(want))
			}
			in[1].SetHighZ("")
			g.Update()
			hwtest.ExpectZ(t, out)
		})
	}
}

func Test_Not(t *testing.T) {
	g := hwlib.Not("not", nil)
	in := inputs(t, g, "IN")
	out, _ := g.Pin("OUT")
	g.Update()
	hwtest.ExpectZ(t, out)
	in[0].Set(pinsim.High)
	g.Update()
	hwtest.ExpectValue(t, out, pinsim.Low)
	in[0].Set(pinsim.Low)
	g.Update()
	hwtest.ExpectValue(t, out, pinsim.High)

	c := g.Clone()
	cin := inputs(t, c, "IN")
	cin[0].Set(pinsim.Low)
	c.Update()
	cout, _ := c.Pin("OUT")
	hwtest.ExpectValue(t, cout, pinsim.High)
	g.Stop()
	hwtest.ExpectZ(t, out)
}

func Test_DFF(t *testing.T) {
	d := hwlib.NewDFF("dff", nil)
	in := inputs(t, d, "IN", "CLK")
	out, _ := d.Pin("OUT")
	in[1].Set(pinsim.Low)
	in[0].Set(pinsim.High)
	d.Update()
	hwtest.ExpectZ(t, out)

	seq := []bool{true, false, false, true, true, false}
	for _, v := range seq {
		in[0].Set(pinsim.Level(v))
		in[1].Set(pinsim.High)
		d.Update()
		// input changes after the edge are not captured
		in[0].Set(pinsim.Level(!v))
		d.Update()
		in[1].Set(pinsim.Low)
		d.Update()
		hwtest.ExpectValue(t, out, pinsim.Level(v))
	}
}

func Test_DFF_Clone(t *testing.T) {
	d := hwlib.NewDFF("dff", nil)
	in := inputs(t, d, "IN", "CLK")
	in[1].Set(pinsim.Low)
	d.Update()
	in[0].Set(pinsim.High)
	in[1].Set(pinsim.High)
	d.Update()

	c := d.Clone()
	if c.Name() != d.Name() || c.IsRunning() {
		t.Fatal("clone settings mismatch")
	}
	out, _ := d.Pin("OUT")
	cout, _ := c.Pin("OUT")
	if out == cout || len(cout.Peers()) != 0 {
		t.Fatal("clone shares or inherits pins")
	}
	c.Update()
	hwtest.ExpectZ(t, cout)

	cin := inputs(t, c, "IN", "CLK")
	cin[1].Set(pinsim.Low)
	cin[0].Set(pinsim.Low)
	c.Update()
	cin[1].Set(pinsim.High)
	c.Update()
	hwtest.ExpectValue(t, cout, pinsim.Low)
	hwtest.ExpectValue(t, out, pinsim.High)
}
