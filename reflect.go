// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pinsim

import (
	"log"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var pinPtrType = reflect.TypeOf((*Pin)(nil))

// A PinField describes a pin or bus declared with a struct tag.
//
type PinField struct {
	Name  string // pin or bus name
	Dir   string // "in", "out" or "io"
	Width int    // 0 for a single pin, bus width otherwise
	index []int
}

// Names returns the expanded pin names of f.
//
func (f PinField) Names() []string {
	if f.Width == 0 {
		return []string{f.Name}
	}
	ns := make([]string, f.Width)
	for i := range ns {
		ns[i] = BusPinName(f.Name, i)
	}
	return ns
}

// PinFields returns the pin declarations of the struct pointed to by v.
// Pins are fields of type *Pin or arrays of *Pin (buses) with a tag
//
//	`hw:"dir"` or `hw:"dir,NAME"`
//
// where dir is one of in, out or io. By default, the pin name is the field
// name in upper case. Untagged embedded structs are searched recursively.
//
func PinFields(v interface{}) ([]PinField, error) {
	typ := reflect.TypeOf(v)
	if typ == nil {
		return nil, errors.New("nil pin set")
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if k := typ.Kind(); k != reflect.Struct {
		return nil, errors.Errorf("unsupported type %q for %q", k, typ.Name())
	}
	return pinFields(typ, nil)
}

func pinFields(typ reflect.Type, index []int) ([]PinField, error) {
	var fs []PinField
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		idx := append(append([]int(nil), index...), i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				sub, err := pinFields(f.Type, idx)
				if err != nil {
					return nil, err
				}
				fs = append(fs, sub...)
			}
			continue
		}
		pf := PinField{Name: strings.ToUpper(f.Name), index: idx}
		tv := strings.Split(tag, ",")
		if len(tv) > 2 {
			return nil, errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name())
		}
		if len(tv) == 2 && tv[1] != "" {
			pf.Name = tv[1]
		}
		switch tv[0] {
		case "in", "out", "io":
			pf.Dir = tv[0]
		default:
			return nil, errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name())
		}

		ft := f.Type
		switch {
		case ft == pinPtrType:
		case ft.Kind() == reflect.Array && ft.Elem() == pinPtrType:
			pf.Width = ft.Len()
		default:
			return nil, errors.Errorf("unsupported type %q for field %q in %q", ft, f.Name, typ.Name())
		}
		fs = append(fs, pf)
	}
	return fs, nil
}

// PinNames returns the expanded pin names declared by v. See PinFields.
//
func PinNames(v interface{}) ([]string, error) {
	fs, err := PinFields(v)
	if err != nil {
		return nil, err
	}
	var ns []string
	for _, f := range fs {
		ns = append(ns, f.Names()...)
	}
	return ns, nil
}

// BindPins sets the tagged pin fields of the struct pointed to by v to the
// matching pins of b.
//
func BindPins(b *Base, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("BindPins: non-nil struct pointer required")
	}
	fs, err := PinFields(v)
	if err != nil {
		return err
	}
	e := rv.Elem()
	for _, f := range fs {
		fv := e.FieldByIndex(f.index)
		if f.Width == 0 {
			p, err := b.Pin(f.Name)
			if err != nil {
				return err
			}
			fv.Set(reflect.ValueOf(p))
			continue
		}
		for i := 0; i < f.Width; i++ {
			p, err := b.Pin(f.Name + "[" + strconv.Itoa(i) + "]")
			if err != nil {
				return err
			}
			fv.Index(i).Set(reflect.ValueOf(p))
		}
	}
	return nil
}

// NewBaseFor is a shortcut for NewBase with the pins declared by v, followed
// by BindPins.
//
func NewBaseFor(name string, clk Clock, lg *log.Logger, v interface{}) (*Base, error) {
	ns, err := PinNames(v)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	b := newBase(name, clk, lg, ns)
	if err = BindPins(b, v); err != nil {
		return nil, errors.Wrap(err, name)
	}
	return b, nil
}
