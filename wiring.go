// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BusPinName returns the name of the i-th pin of bus name: "name[i]".
//
func BusPinName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// ExpandBus expands pin declarations with a bus size to individual pin names.
// Names without a size are returned unchanged. For example:
//
//	ExpandBus("D[2]", "SEL") // []string{"D[0]", "D[1]", "SEL"}
//
// Malformed sizes are kept as plain names.
//
func ExpandBus(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		i := strings.IndexRune(n, '[')
		if i <= 0 || !strings.HasSuffix(n, "]") {
			out = append(out, n)
			continue
		}
		size, err := strconv.Atoi(n[i+1 : len(n)-1])
		if err != nil || size <= 0 {
			out = append(out, n)
			continue
		}
		for j := 0; j < size; j++ {
			out = append(out, BusPinName(n[:i], j))
		}
	}
	return out
}

// W is a set of wires, connecting a pin of one component (the key) to one or
// more pins of another (the value). Keys and values may use ranges:
// "D[0..3]".
//
type W map[string]string

// Wire is an expanded wire between two single pins.
//
type Wire struct {
	From, To string
}

// ParseConnections parses a connection description like
//
//	"D[0..3]=D[0..3], PHI1=PHI1, SEL=CM"
//
// into individual wires, in order. Each side of an assignment is a pin name,
// an indexed bus pin "D[2]" or a range "D[0..3]". Both sides must expand to
// the same number of pins, or one side must be a single pin.
//
func ParseConnections(c string) ([]Wire, error) {
	var out []Wire
	for _, a := range strings.Split(c, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		kv := strings.Split(a, "=")
		if len(kv) != 2 {
			return nil, errors.New("invalid pin mapping " + a)
		}
		ws, err := expandWire(strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, err
		}
		out = append(out, ws...)
	}
	return out, nil
}

// expand builds a wire list by expanding bus ranges. Keys are visited in
// sorted order.
//
func (w W) expand() ([]Wire, error) {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var r []Wire
	for _, k := range keys {
		ws, err := expandWire(k, w[k])
		if err != nil {
			return nil, err
		}
		r = append(r, ws...)
	}
	return r, nil
}

func expandWire(k, v string) ([]Wire, error) {
	if k == "" || v == "" {
		return nil, errors.New("invalid pin mapping " + k + ":" + v)
	}
	ks, err := expandRange(k)
	if err != nil {
		return nil, errors.Wrap(err, "expand key "+k)
	}
	vs, err := expandRange(v)
	if err != nil {
		return nil, errors.Wrap(err, "expand value "+v)
	}
	var r []Wire
	switch {
	case len(ks) == len(vs):
		// many to many
		for i := range ks {
			r = append(r, Wire{ks[i], vs[i]})
		}
	case len(ks) == 1:
		// one to many
		for _, v := range vs {
			r = append(r, Wire{ks[0], v})
		}
	case len(vs) == 1:
		// many to one
		for _, k := range ks {
			r = append(r, Wire{k, vs[0]})
		}
	default:
		return nil, errors.New("pin count mismatch in pin mapping: " + k + ":" + v)
	}
	return r, nil
}

func expandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name")
	}
	n := name[i+1:]
	i = strings.Index(n, "..")
	if i < 0 {
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, err
	}
	n = n[i+2:]
	i = strings.IndexRune(n, ']')
	if i < 0 {
		return nil, errors.New("no terminating ] in bus range")
	}
	end, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, errors.Errorf("invalid bus range %s[%d..%d]", bus, start, end)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}

// Connect connects pins of component a to pins of component b as described by
// conns (see ParseConnections). Left-hand names are a's pins, right-hand names
// are b's pins. It stops at the first error.
//
func Connect(a, b Component, conns string) error {
	ws, err := ParseConnections(conns)
	if err != nil {
		return errors.Wrap(err, a.Name()+":"+b.Name())
	}
	return connectWires(a, b, ws)
}

// ConnectW is like Connect but takes a wire map.
//
func ConnectW(a, b Component, w W) error {
	ws, err := w.expand()
	if err != nil {
		return errors.Wrap(err, a.Name()+":"+b.Name())
	}
	return connectWires(a, b, ws)
}

func connectWires(a, b Component, ws []Wire) error {
	for _, w := range ws {
		pa, err := a.Pin(w.From)
		if err != nil {
			return err
		}
		pb, err := b.Pin(w.To)
		if err != nil {
			return err
		}
		if err = pa.Connect(pb); err != nil {
			return errors.Wrap(err, a.Name()+"."+w.From+":"+b.Name()+"."+w.To)
		}
	}
	return nil
}
