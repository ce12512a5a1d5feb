// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides glue logic parts for pinsim circuits: logic gates and
// a D flip-flop, typically used for chip select decoding.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import (
	"github.com/db47h/pinsim"
)

// common pin names
const (
	pA   = "A"
	pB   = "B"
	pIn  = "IN"
	pClk = "CLK"
	pOut = "OUT"
)

// Gate is a two input logic gate (one input for Not).
//
//	Inputs: A, B (IN for Not)
//	Outputs: OUT
//
// A floating input releases the output.
//
type Gate struct {
	*pinsim.Base
	fn    func(a, b bool) bool
	a, b  *pinsim.Pin
	out   *pinsim.Pin
	unary bool
	kind  string
}

func newGate(kind, name string, clk pinsim.Clock, fn func(a, b bool) bool) *Gate {
	g := &Gate{
		Base: pinsim.NewBase(name, clk, nil, pA, pB, pOut),
		fn:   fn,
		kind: kind,
	}
	g.a, g.b, g.out = g.MustPin(pA), g.MustPin(pB), g.MustPin(pOut)
	return g
}

// Kind returns the gate type: NOT, AND, etc.
//
func (g *Gate) Kind() string { return g.kind }

// Update implements pinsim.Component.
//
func (g *Gate) Update() {
	if g.Stopped() {
		return
	}
	a, aok := g.a.Read().Bool()
	b, bok := true, true
	if !g.unary {
		b, bok = g.b.Read().Bool()
	}
	if !aok || !bok {
		g.Release(g.out)
		return
	}
	g.Drive(g.out, pinsim.Level(g.fn(a, b)))
}

// Run implements pinsim.Component.
//
func (g *Gate) Run() { g.RunLoop(g) }

// Clone returns a gate of the same kind with fresh pins.
//
func (g *Gate) Clone() *Gate {
	c := &Gate{
		Base:  g.Base.Clone(),
		fn:    g.fn,
		unary: g.unary,
		kind:  g.kind,
	}
	c.out = c.MustPin(pOut)
	if c.unary {
		c.a = c.MustPin(pIn)
	} else {
		c.a, c.b = c.MustPin(pA), c.MustPin(pB)
	}
	return c
}

// Not returns a NOT gate.
//
//	Inputs: IN
//	Outputs: OUT
//	Function: OUT = !IN
//
func Not(name string, clk pinsim.Clock) *Gate {
	g := &Gate{
		Base:  pinsim.NewBase(name, clk, nil, pIn, pOut),
		fn:    func(a, _ bool) bool { return !a },
		unary: true,
		kind:  "NOT",
	}
	g.a, g.out = g.MustPin(pIn), g.MustPin(pOut)
	return g
}

// And returns a AND gate.
//
//	Function: OUT = A && B
//
func And(name string, clk pinsim.Clock) *Gate {
	return newGate("AND", name, clk, func(a, b bool) bool { return a && b })
}

// Nand returns a NAND gate.
//
//	Function: OUT = !(A && B)
//
func Nand(name string, clk pinsim.Clock) *Gate {
	return newGate("NAND", name, clk, func(a, b bool) bool { return !(a && b) })
}

// Or returns a OR gate.
//
//	Function: OUT = A || B
//
func Or(name string, clk pinsim.Clock) *Gate {
	return newGate("OR", name, clk, func(a, b bool) bool { return a || b })
}

// Nor returns a NOR gate.
//
//	Function: OUT = !(A || B)
//
func Nor(name string, clk pinsim.Clock) *Gate {
	return newGate("NOR", name, clk, func(a, b bool) bool { return !(a || b) })
}

// Xor returns a XOR gate.
//
//	Function: OUT = A && !B || !A && B
//
func Xor(name string, clk pinsim.Clock) *Gate {
	return newGate("XOR", name, clk, func(a, b bool) bool { return a && !b || !a && b })
}

// Xnor returns a XNOR gate.
//
//	Function: OUT = A && B || !A && !B
//
func Xnor(name string, clk pinsim.Clock) *Gate {
	return newGate("XNOR", name, clk, func(a, b bool) bool { return a && b || !a && !b })
}
