// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/peekwez/tmr/errs"
)

// Reader reads typed values from a registry and keeps the first error. The Opt methods return
// nil (or false) for options that are not set.
type Reader struct {
	reg *Registry // source of values
	err error     // first error
}

// NewReader returns a new reader of reg
func NewReader(reg *Registry) *Reader { return &Reader{reg: reg} }

// Err returns the first error found while reading
func (o *Reader) Err() error { return o.err }

// Keep records err unless an error was found before
func (o *Reader) Keep(err error) {
	if o.err == nil && err != nil {
		o.err = err
	}
}

func (o *Reader) Float(name string) float64 {
	v, _, err := o.reg.Float(name)
	o.Keep(err)
	return v
}

func (o *Reader) Int(name string) int {
	v, _, err := o.reg.Int(name)
	o.Keep(err)
	return v
}

func (o *Reader) Bool(name string) bool {
	v, _, err := o.reg.Bool(name)
	o.Keep(err)
	return v
}

func (o *Reader) String(name string) string {
	v, _, err := o.reg.String(name)
	o.Keep(err)
	return v
}

func (o *Reader) OptFloat(name string) *float64 {
	v, ok, err := o.reg.Float(name)
	o.Keep(err)
	if !ok {
		return nil
	}
	return &v
}

func (o *Reader) OptInt(name string) *int {
	v, ok, err := o.reg.Int(name)
	o.Keep(err)
	if !ok {
		return nil
	}
	return &v
}

func (o *Reader) OptBool(name string) *bool {
	v, ok, err := o.reg.Bool(name)
	o.Keep(err)
	if !ok {
		return nil
	}
	return &v
}

func (o *Reader) OptString(name string) *string {
	v, ok, err := o.reg.String(name)
	o.Keep(err)
	if !ok {
		return nil
	}
	return &v
}

func (o *Reader) OptPair(name string) *[2]float64 {
	v, ok, err := o.reg.Pair(name)
	o.Keep(err)
	if !ok {
		return nil
	}
	return &v
}

// Enum returns the position of the value of a string option in names
func (o *Reader) Enum(name string, names []string) int {
	i, _ := o.OptEnum(name, names)
	return i
}

// OptEnum returns the position of the value of a string option in names; ok is false if the
// option is not set or the value is not in names
func (o *Reader) OptEnum(name string, names []string) (i int, ok bool) {
	v, set, err := o.reg.String(name)
	o.Keep(err)
	if !set {
		return 0, false
	}
	for i, n := range names {
		if n == v {
			return i, true
		}
	}
	o.Keep(errs.New(errs.ErrValueNotAllowed, "option %q: value %q is not in %v", name, v, names))
	return 0, false
}
