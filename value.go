// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

// Value is the logic level asserted on, or read from, a Pin.
//
type Value uint8

// Logic levels. The zero Value is HighZ: an undriven node.
//
const (
	HighZ Value = iota
	Low
	High
)

func (v Value) String() string {
	switch v {
	case Low:
		return "Low"
	case High:
		return "High"
	case HighZ:
		return "HighZ"
	}
	return "Value(?)"
}

// Bool returns the value as a bool and reports whether the level is defined
// (not HighZ).
//
func (v Value) Bool() (b bool, ok bool) {
	return v == High, v != HighZ
}

// Level converts a bool to High or Low.
//
func Level(b bool) Value {
	if b {
		return High
	}
	return Low
}

// Strength ranks simultaneous drivers on a node. Strengths are totally
// ordered: HighImpedance < Standard < Strong.
//
type Strength uint8

// Drive strengths.
//
const (
	HighImpedance Strength = iota
	Standard
	Strong
)

func (s Strength) String() string {
	switch s {
	case HighImpedance:
		return "HighImpedance"
	case Standard:
		return "Standard"
	case Strong:
		return "Strong"
	}
	return "Strength(?)"
}

// Drive is a single driver's contribution to a node.
//
type Drive struct {
	Value    Value
	Strength Strength
}

// active reports whether d takes part in resolution.
func (d Drive) active() bool {
	return d.Strength != HighImpedance && d.Value != HighZ
}

// Resolve computes the wired value of a set of drives: inactive drives are
// ignored, only the strongest remaining drives count, and among those Low wins
// over High (wired-AND). An empty or fully inactive set resolves to HighZ.
//
// Resolve does not depend on the order of ds.
//
func Resolve(ds []Drive) Value {
	var (
		max       = HighImpedance
		low, high bool
	)
	for _, d := range ds {
		if !d.active() {
			continue
		}
		switch {
		case d.Strength > max:
			max = d.Strength
			low, high = d.Value == Low, d.Value == High
		case d.Strength == max:
			low = low || d.Value == Low
			high = high || d.Value == High
		}
	}
	switch {
	case low:
		return Low
	case high:
		return High
	}
	return HighZ
}
