// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package pinsim provides the building blocks of a pin-level digital logic
emulator: pins with multiple weighted drivers, buses, clocked components and
the two-phase timing state machine used by 4-bit memory chips.

Components run concurrently, each on its own goroutine, and only talk to each
other through their pins. Reading a pin resolves the drivers of every pin
connected to it:

	rom, _ := mcs4.NewROM("rom", mcs4.Config{})
	ram, _ := mcs4.NewRAM("ram", mcs4.Config{})
	err := pinsim.Connect(rom, ram, "D[0..3]=D[0..3], PHI1=PHI1, PHI2=PHI2")

Time is injected through a Clock. Use RealClock to run a circuit in real time,
or a SimClock to step it deterministically, as package hwtest does.

Ready to use chips are in package mcs4, glue logic in package hwlib.
*/
package pinsim
