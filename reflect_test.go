// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim_test

import (
	"reflect"
	"testing"

	"github.com/db47h/pinsim"
)

type ctlPins struct {
	Sel   *pinsim.Pin `hw:"in,SEL"`
	Reset *pinsim.Pin `hw:"in"`
}

type testPins struct {
	ctlPins
	A   [4]*pinsim.Pin `hw:"in"`
	Out [2]*pinsim.Pin `hw:"out,Q"`
	CLK *pinsim.Pin    `hw:"io"`
	x   int
}

func Test_PinFields(t *testing.T) {
	var tp testPins
	ns, err := pinsim.PinNames(&tp)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"SEL", "RESET", "A[0]", "A[1]", "A[2]", "A[3]", "Q[0]", "Q[1]", "CLK"}
	if !reflect.DeepEqual(ns, want) {
		t.Fatalf("got %v, want %v", ns, want)
	}
	fs, _ := pinsim.PinFields(tp)
	if len(fs) != 5 || fs[2].Width != 4 || fs[4].Dir != "io" {
		t.Fatalf("unexpected fields %+v", fs)
	}
}

func Test_PinFields_errors(t *testing.T) {
	data := []struct {
		name string
		v    interface{}
	}{
		{"nil", nil},
		{"not_struct", new(int)},
		{"bad_dir", &struct {
			A *pinsim.Pin `hw:"up"`
		}{}},
		{"bad_tag", &struct {
			A *pinsim.Pin `hw:"in,A,B"`
		}{}},
		{"bad_type", &struct {
			A int `hw:"in"`
		}{}},
		{"bad_slice", &struct {
			A []*pinsim.Pin `hw:"in"`
		}{}},
	}
	for _, td := range data {
		if _, err := pinsim.PinFields(td.v); err == nil {
			t.Errorf("%s: no error", td.name)
		}
	}
}

func Test_NewBaseFor(t *testing.T) {
	var tp testPins
	b, err := pinsim.NewBaseFor("part", nil, nil, &tp)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range b.PinNames() {
		if _, err := b.Pin(n); err != nil {
			t.Fatal(err)
		}
	}
	if p, _ := b.Pin("SEL"); p != tp.Sel {
		t.Fatal("SEL not bound")
	}
	if p, _ := b.Pin("A[3]"); p != tp.A[3] {
		t.Fatal("A[3] not bound")
	}
	if p, _ := b.Pin("Q[1]"); p != tp.Out[1] {
		t.Fatal("Q[1] not bound")
	}
	// clones keep bus pin names unchanged
	c := b.Clone()
	if !reflect.DeepEqual(c.PinNames(), b.PinNames()) {
		t.Fatalf("clone pins %v, want %v", c.PinNames(), b.PinNames())
	}
	var tp2 testPins
	if err = pinsim.BindPins(c, &tp2); err != nil {
		t.Fatal(err)
	}
	if tp2.Reset == nil || tp2.Reset == tp.Reset {
		t.Fatal("clone pins not bound or shared")
	}
	if err = pinsim.BindPins(c, tp2); err == nil {
		t.Fatal("BindPins accepted a non-pointer")
	}
}
