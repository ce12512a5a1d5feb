// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"math/rand"
	"testing"
	"time"

	"github.com/db47h/pinsim"
)

// CompareChips takes two memory chips with the same pinout and compares the
// data they return for the same random read cycles. Each chip is attached to
// its own Bench, both running on clk, which must be the chips' clock. access
// is the access time to wait in each cycle, windows the number of Φ2 windows
// per cycle and size the address range to draw addresses from.
//
func CompareChips(t *testing.T, clk *pinsim.SimClock, access time.Duration, windows, size int, c1, c2 pinsim.Component) {
	t.Helper()

	seed := time.Now().UnixNano()
	rnd := rand.New(rand.NewSource(seed))

	b1, b2 := NewBenchClock(clk), NewBenchClock(clk)
	if err := b1.Attach(c1); err != nil {
		t.Fatal(err)
	}
	if err := b2.Attach(c2); err != nil {
		t.Fatal(err)
	}

	iter := size
	if iter > 64 {
		iter = 64
	}
	start := time.Now()
	for i := 0; i < iter; i++ {
		addr := uint8(rnd.Intn(size))
		n1, ok1 := b1.ReadCycle(addr, access, windows)
		n2, ok2 := b2.ReadCycle(addr, access, windows)
		if !equal(n1, n2) || ok1 != ok2 {
			t.Fatalf("seed %d: address %#02x: %s read %x (%v), %s read %x (%v)",
				seed, addr, c1.Name(), n1, ok1, c2.Name(), n2, ok2)
		}
		if !b1.Master.DataZ() || !b2.Master.DataZ() {
			t.Fatalf("seed %d: address %#02x: data bus not released after read cycle", seed, addr)
		}
	}
	t.Logf("%d read cycles in %v", iter, time.Since(start))
}

func equal(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
