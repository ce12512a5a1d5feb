// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command pinsim runs a small MCS-4 style circuit in real time: a clock
// generator, a ROM, a RAM and a minimal bus master copying the low nibble of
// each ROM byte to RAM.
//
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/bradleyjkemp/memviz"
	"github.com/db47h/pinsim"
	"github.com/db47h/pinsim/hwlib"
	"github.com/db47h/pinsim/mcs4"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsAddr = "localhost:12600"

var (
	period    = flag.Duration("period", 10*time.Millisecond, "clock `period`")
	access    = flag.Duration("access", 0, "memory access time (default 3/8 of the clock period)")
	count     = flag.Int("n", 16, "number of ROM bytes to copy")
	timeout   = flag.Duration("timeout", 30*time.Second, "stop after `duration`")
	verbose   = flag.Bool("v", false, "log component state transitions")
	stats     = flag.Bool("statsview", false, "serve runtime statistics on "+statsAddr+"/debug/statsview")
	memvizOut = flag.String("memviz", "", "write a graphviz dump of the circuit to `file`")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if *count < 0 || *count > mcs4.RAMSize {
		log.Fatalf("invalid byte count %d, max is %d", *count, mcs4.RAMSize)
	}
	if *stats {
		go func() {
			viewer.SetConfiguration(viewer.WithAddr(statsAddr))
			mgr := statsview.New()
			mgr.Start()
		}()
		log.Printf("stats server available at %s/debug/statsview", statsAddr)
	}

	acc := *access
	if acc <= 0 {
		acc = *period * 3 / 8
	}
	var chipLog *log.Logger
	if *verbose {
		chipLog = log.New(os.Stderr, "", log.Lmicroseconds)
	}
	clk := pinsim.RealClock{}
	cfg := mcs4.Config{Clock: clk, Log: chipLog, AccessTime: acc}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cg, err := mcs4.NewClockGen("clock", *period, cfg)
	if err != nil {
		log.Fatal(err)
	}
	rom, err := mcs4.NewROM("rom", cfg)
	if err != nil {
		log.Fatal(err)
	}
	prog := make([]byte, mcs4.ROMSize)
	for i := range prog {
		prog[i] = byte(i*7 + 3)
	}
	if err = rom.Load(prog); err != nil {
		log.Fatal(err)
	}
	ram, err := mcs4.NewRAM("ram", cfg)
	if err != nil {
		log.Fatal(err)
	}
	we := hwlib.Not("we", clk)
	cpu := newFetcher("cpu", *count, clk, cancel)
	cpu.Log = chipLog
	if cpu.Log == nil {
		cpu.Log = log.New(os.Stderr, "", log.Lmicroseconds)
	}

	sys := pinsim.NewSystem(log.New(os.Stderr, "", log.Lmicroseconds))
	if err = sys.Add(cg, rom, ram, we, cpu); err != nil {
		log.Fatal(err)
	}
	for _, c := range []struct{ a, b, conns string }{
		{"clock", "cpu", "PHI1=PHI1, PHI2=PHI2"},
		{"clock", "rom", "PHI1=PHI1, PHI2=PHI2"},
		{"clock", "ram", "PHI1=PHI1, PHI2=PHI2"},
		{"cpu", "rom", "D[0..3]=D[0..3], CMROM=SEL"},
		{"cpu", "ram", "D[0..3]=D[0..3], CMRAM=SEL"},
		{"cpu", "we", "RD=IN"},
		{"we", "ram", "OUT=WE"},
	} {
		if err = sys.Connect(c.a, c.b, c.conns); err != nil {
			log.Fatal(err)
		}
	}
	// RESET is distributed through a bus rather than a direct connection.
	reset := pinsim.NewBus("reset", *period/4, clk)
	for _, c := range []pinsim.Component{cpu, rom, ram} {
		p, err := c.Pin(mcs4.PinReset)
		if err != nil {
			log.Fatal(err)
		}
		if err = reset.ConnectPin(p); err != nil {
			log.Fatal(err)
		}
	}
	if err = sys.AddBus(reset); err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	if err = sys.Run(ctx); err != nil {
		log.Fatal(err)
	}
	log.Printf("ran %d clock cycles in %v", cg.Cycles(), time.Since(start))

	errs := 0
	for i, v := range cpu.Copied() {
		got, err := ram.Peek(i)
		if err != nil {
			log.Fatal(err)
		}
		want := prog[i] & 0x0F
		if got != want || v != want {
			log.Printf("RAM[%#02x] = %#x, want %#x", i, got, want)
			errs++
		}
	}
	if n := len(cpu.Copied()); n < *count {
		log.Printf("timeout: only %d of %d nibbles copied", n, *count)
		errs++
	}

	if *memvizOut != "" {
		f, err := os.Create(*memvizOut)
		if err != nil {
			log.Fatal(err)
		}
		memviz.Map(f, sys)
		if err = f.Close(); err != nil {
			log.Fatal(err)
		}
	}
	if errs > 0 {
		os.Exit(1)
	}
}
