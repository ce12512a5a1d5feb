// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/db47h/pinsim"
	"github.com/pkg/errors"
)

// Trace logs the stack trace of err if it has one.
//
func Trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// Dump logs the own drivers of each pin.
//
func Dump(t *testing.T, ps ...*pinsim.Pin) {
	t.Helper()
	for _, p := range ps {
		t.Logf("%s: %s", p, spew.Sdump(p.Drivers()))
	}
}

// ExpectValue fails the test if p does not read v.
//
func ExpectValue(t *testing.T, p *pinsim.Pin, v pinsim.Value) bool {
	t.Helper()
	if got := p.Read(); got != v {
		t.Errorf("pin %s: expected %v, got %v", p.Name(), v, got)
		Dump(t, p)
		return false
	}
	return true
}

// ExpectZ fails the test if any of the pins is driven.
//
func ExpectZ(t *testing.T, ps ...*pinsim.Pin) bool {
	t.Helper()
	ok := true
	for _, p := range ps {
		ok = ExpectValue(t, p, pinsim.HighZ) && ok
	}
	return ok
}

// ExpectDataZ fails the test if the master's data bus is driven.
//
func ExpectDataZ(t *testing.T, m *Master) bool {
	t.Helper()
	if !m.DataZ() {
		t.Errorf("data bus driven: %v", m.Data())
		return false
	}
	return true
}

// ExpectNibble fails the test if the master's data bus does not carry n.
//
func ExpectNibble(t *testing.T, m *Master, n uint8) bool {
	t.Helper()
	got, ok := m.ReadNibble()
	if !ok || got != n {
		t.Errorf("data bus: expected %#x, got %v", n, m.Data())
		return false
	}
	return true
}
