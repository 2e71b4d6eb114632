// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data: option registries and (.topo) JSON files
package inp

import (
	"errors"
	"math"
	"sort"

	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/errs"
)

// Kind is the type constraint of an option
type Kind int

const (
	KindAny       Kind = iota // no type constraint
	KindInt                   // Go int
	KindFloat                 // float64 (ints are promoted)
	KindBool                  // bool
	KindString                // string
	KindFloatPair             // [2]float64
)

// String returns the name of the kind
func (o Kind) String() string {
	switch o {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFloatPair:
		return "float pair"
	}
	return "any"
}

// Entry holds one option
//  Note: a nil Value means the option is not set
type Entry struct {
	Name    string        // option name; e.g. "tr_eta"
	Value   interface{}   // current value (starts as the default)
	Kind    Kind          // type constraint
	Allowed []interface{} // allowed values; nil means any
	Lower   *float64      // numeric lower bound (inclusive); nil means unbounded
	Upper   *float64      // numeric upper bound (inclusive); nil means unbounded
	Desc    string        // description
}

// Registry holds declared options
type Registry struct {
	entries map[string]*Entry // all entries
	order   []string          // names in declaration order
}

// NewRegistry returns a new empty registry
func NewRegistry() (o *Registry) {
	o = new(Registry)
	o.entries = make(map[string]*Entry)
	return
}

// Bound returns a pointer to v; used to set Entry.Lower and Entry.Upper
func Bound(v float64) *float64 { return &v }

// Declare registers a new option. Each name can be declared once only.
func (o *Registry) Declare(e *Entry) (err error) {
	if e == nil || e.Name == "" {
		return errs.New(errs.ErrInvalidConfiguration, "option must have a name")
	}
	if _, ok := o.entries[e.Name]; ok {
		return errs.New(errs.ErrInvalidConfiguration, "option %q is declared already", e.Name)
	}
	if e.Lower != nil && e.Upper != nil && *e.Lower > *e.Upper {
		return errs.New(errs.ErrInvalidConfiguration, "option %q has lower bound %g > upper bound %g", e.Name, *e.Lower, *e.Upper)
	}
	if e.Value != nil {
		v, err := o.check(e, e.Value)
		if err != nil {
			return errs.New(errs.ErrInvalidConfiguration, "default of option %q is invalid:\n%v", e.Name, err)
		}
		e.Value = v
	}
	o.entries[e.Name] = e
	o.order = append(o.order, e.Name)
	return
}

// Read returns the current value of an option
func (o *Registry) Read(name string) (val interface{}, err error) {
	e, ok := o.entries[name]
	if !ok {
		return nil, errs.New(errs.ErrUnknownOption, "key %q is not in registry", name)
	}
	return e.Value, nil
}

// Write validates and sets the value of an option. Nothing changes if validation fails.
func (o *Registry) Write(name string, value interface{}) (err error) {
	e, ok := o.entries[name]
	if !ok {
		return errs.New(errs.ErrUnknownOption, "key %q is not in registry; declare it first", name)
	}
	v, err := o.check(e, value)
	if err != nil {
		return
	}
	e.Value = v
	return
}

// WriteAll writes all values and collects all failures
func (o *Registry) WriteAll(values map[string]interface{}) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	var all []error
	for _, name := range names {
		if err := o.Write(name, values[name]); err != nil {
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}

// IsSet tells whether the option is declared and holds a value
func (o *Registry) IsSet(name string) bool {
	e, ok := o.entries[name]
	return ok && e.Value != nil
}

// Entry returns the entry of a declared option or nil
func (o *Registry) Entry(name string) *Entry {
	return o.entries[name]
}

// Names returns all option names in declaration order
func (o *Registry) Names() []string {
	return append([]string{}, o.order...)
}

// typed readers ///////////////////////////////////////////////////////////////////////////////////

// Float returns the value of a float option; ok is false if the option is not set
func (o *Registry) Float(name string) (val float64, ok bool, err error) {
	v, err := o.Read(name)
	if err != nil || v == nil {
		return
	}
	val, ok = v.(float64)
	if !ok {
		err = errs.New(errs.ErrTypeMismatch, "option %q holds %T; float expected", name, v)
	}
	return
}

// Int returns the value of an int option; ok is false if the option is not set
func (o *Registry) Int(name string) (val int, ok bool, err error) {
	v, err := o.Read(name)
	if err != nil || v == nil {
		return
	}
	val, ok = v.(int)
	if !ok {
		err = errs.New(errs.ErrTypeMismatch, "option %q holds %T; int expected", name, v)
	}
	return
}

// Bool returns the value of a bool option; ok is false if the option is not set
func (o *Registry) Bool(name string) (val bool, ok bool, err error) {
	v, err := o.Read(name)
	if err != nil || v == nil {
		return
	}
	val, ok = v.(bool)
	if !ok {
		err = errs.New(errs.ErrTypeMismatch, "option %q holds %T; bool expected", name, v)
	}
	return
}

// String returns the value of a string option; ok is false if the option is not set
func (o *Registry) String(name string) (val string, ok bool, err error) {
	v, err := o.Read(name)
	if err != nil || v == nil {
		return
	}
	val, ok = v.(string)
	if !ok {
		err = errs.New(errs.ErrTypeMismatch, "option %q holds %T; string expected", name, v)
	}
	return
}

// Pair returns the value of a float-pair option; ok is false if the option is not set
func (o *Registry) Pair(name string) (val [2]float64, ok bool, err error) {
	v, err := o.Read(name)
	if err != nil || v == nil {
		return
	}
	val, ok = v.([2]float64)
	if !ok {
		err = errs.New(errs.ErrTypeMismatch, "option %q holds %T; float pair expected", name, v)
	}
	return
}

// Table returns a formatted table with all options
func (o *Registry) Table() (l string) {
	l = io.Sf("%-28s %-10s %-24s %s\n", "option", "type", "value", "description")
	for _, name := range o.order {
		e := o.entries[name]
		val := "-"
		if e.Value != nil {
			val = io.Sf("%v", e.Value)
		}
		l += io.Sf("%-28s %-10s %-24s %s\n", name, e.Kind, val, e.Desc)
	}
	return
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// check validates value against the constraints of e and returns the value to store
func (o *Registry) check(e *Entry, value interface{}) (v interface{}, err error) {

	// type
	v, err = coerce(e, value)
	if err != nil {
		return
	}

	// bounds
	if e.Lower != nil || e.Upper != nil {
		x, isnum := number(v)
		if !isnum {
			return nil, errs.New(errs.ErrTypeMismatch, "option %q has numeric bounds; %v (%T) is not a number", e.Name, value, value)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, errs.New(errs.ErrBoundViolation, "option %q: value %v is not finite", e.Name, value)
		}
		if e.Lower != nil && x < *e.Lower {
			return nil, errs.New(errs.ErrBoundViolation, "option %q: value %v violates lower bound %g", e.Name, value, *e.Lower)
		}
		if e.Upper != nil && x > *e.Upper {
			return nil, errs.New(errs.ErrBoundViolation, "option %q: value %v violates upper bound %g", e.Name, value, *e.Upper)
		}
	}

	// allowed values
	if e.Allowed != nil {
		for _, a := range e.Allowed {
			if a == v {
				return
			}
		}
		return nil, errs.New(errs.ErrValueNotAllowed, "option %q: value %v is not in %v", e.Name, value, e.Allowed)
	}
	return
}

// coerce checks the type of value and converts the few accepted variants
func coerce(e *Entry, value interface{}) (interface{}, error) {
	mismatch := func() error {
		return errs.New(errs.ErrTypeMismatch, "option %q requires %v; got %v (%T)", e.Name, e.Kind, value, value)
	}
	switch e.Kind {
	case KindInt:
		if v, ok := value.(int); ok {
			return v, nil
		}
		return nil, mismatch()
	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		}
		return nil, mismatch()
	case KindBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
		return nil, mismatch()
	case KindString:
		if v, ok := value.(string); ok {
			return v, nil
		}
		return nil, mismatch()
	case KindFloatPair:
		switch v := value.(type) {
		case [2]float64:
			return v, nil
		case []float64:
			if len(v) == 2 {
				return [2]float64{v[0], v[1]}, nil
			}
		case []interface{}:
			if len(v) == 2 {
				a, oka := number(v[0])
				b, okb := number(v[1])
				if oka && okb {
					return [2]float64{a, b}, nil
				}
			}
		}
		return nil, mismatch()
	}
	return value, nil
}

// number converts ints and floats to float64
func number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}
