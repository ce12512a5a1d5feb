// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/pinsim"
)

func Test_Resolve(t *testing.T) {
	const (
		Z  = pinsim.HighZ
		L  = pinsim.Low
		H  = pinsim.High
		hi = pinsim.HighImpedance
		st = pinsim.Standard
		sg = pinsim.Strong
	)
	d := func(v pinsim.Value, s pinsim.Strength) pinsim.Drive { return pinsim.Drive{Value: v, Strength: s} }
	data := []struct {
		name string
		ds   []pinsim.Drive
		want pinsim.Value
	}{
		{"empty", nil, Z},
		{"all_z", []pinsim.Drive{d(Z, hi), d(Z, st), d(H, hi)}, Z},
		{"single_high", []pinsim.Drive{d(H, st)}, H},
		{"single_low", []pinsim.Drive{d(L, st)}, L},
		{"low_wins", []pinsim.Drive{d(H, st), d(L, st)}, L},
		{"low_wins_rev", []pinsim.Drive{d(L, st), d(H, st)}, L},
		{"strong_high", []pinsim.Drive{d(L, st), d(H, sg)}, H},
		{"strong_low", []pinsim.Drive{d(H, st), d(L, sg), d(H, sg)}, L},
		{"z_ignored", []pinsim.Drive{d(Z, sg), d(H, st)}, H},
		{"hiz_strength_ignored", []pinsim.Drive{d(L, hi), d(H, st)}, H},
	}
	for _, td := range data {
		t.Run(td.name, func(t *testing.T) {
			if got := pinsim.Resolve(td.ds); got != td.want {
				t.Fatalf("expected %v, got %v", td.want, got)
			}
		})
	}
}

func Test_Resolve_order(t *testing.T) {
	vals := []pinsim.Value{pinsim.HighZ, pinsim.Low, pinsim.High}
	strs := []pinsim.Strength{pinsim.HighImpedance, pinsim.Standard, pinsim.Strong}
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		ds := make([]pinsim.Drive, rnd.Intn(8))
		for j := range ds {
			ds[j] = pinsim.Drive{Value: vals[rnd.Intn(3)], Strength: strs[rnd.Intn(3)]}
		}
		want := pinsim.Resolve(ds)
		rnd.Shuffle(len(ds), func(a, b int) { ds[a], ds[b] = ds[b], ds[a] })
		if got := pinsim.Resolve(ds); got != want {
			t.Fatalf("%v: order dependent result: %v != %v", ds, got, want)
		}
	}
}

func Test_Value(t *testing.T) {
	if b, ok := pinsim.High.Bool(); !b || !ok {
		t.Errorf("High.Bool() = %v, %v", b, ok)
	}
	if b, ok := pinsim.Low.Bool(); b || !ok {
		t.Errorf("Low.Bool() = %v, %v", b, ok)
	}
	if _, ok := pinsim.HighZ.Bool(); ok {
		t.Error("HighZ.Bool() reports a defined level")
	}
	if pinsim.Level(true) != pinsim.High || pinsim.Level(false) != pinsim.Low {
		t.Error("Level mismatch")
	}
	if s := pinsim.HighZ.String(); s != "HighZ" {
		t.Errorf("HighZ.String() = %q", s)
	}
	if !(pinsim.HighImpedance < pinsim.Standard && pinsim.Standard < pinsim.Strong) {
		t.Error("strength ordering")
	}
}
