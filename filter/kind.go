// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"github.com/peekwez/tmr/errs"
)

// Kind is the type of design parametrization (filter). The set of kinds is closed:
// Lagrange, Matrix, Conform and Helmholtz.
type Kind interface {
	Name() string    // name as given in input files
	validate() error // check parameters
}

// Lagrange interpolates the design variables from a lower-order filter mesh
type Lagrange struct{}

// Matrix smooths the design variables over the analysis mesh
type Matrix struct {
	S float64 // smoothing parameter
	N int     // approximation parameter
}

// Conform parametrizes the design variables on a conforming filter mesh
type Conform struct{}

// Helmholtz solves a Helmholtz equation on the filter mesh
type Helmholtz struct {
	R0 float64 // filter radius
}

func (Lagrange) Name() string  { return "lagrange" }
func (Matrix) Name() string    { return "matrix" }
func (Conform) Name() string   { return "conform" }
func (Helmholtz) Name() string { return "helmholtz" }

func (Lagrange) validate() error { return nil }
func (Conform) validate() error  { return nil }

func (o Matrix) validate() error {
	if o.S <= 0 {
		return errs.New(errs.ErrInvalidConfiguration, "matrix filter: s must be positive; got %g", o.S)
	}
	if o.N < 1 {
		return errs.New(errs.ErrInvalidConfiguration, "matrix filter: n must be at least 1; got %d", o.N)
	}
	return nil
}

func (o Helmholtz) validate() error {
	if o.R0 <= 0 {
		return errs.New(errs.ErrInvalidConfiguration, "helmholtz filter: r0 must be positive; got %g", o.R0)
	}
	return nil
}

// ParseKind returns the kind corresponding to name
//  Input:
//   name -- "lagrange", "matrix", "conform" or "helmholtz"
//   s, n -- matrix filter parameters
//   r0   -- helmholtz filter radius
func ParseKind(name string, s float64, n int, r0 float64) (k Kind, err error) {
	switch name {
	case "lagrange":
		k = Lagrange{}
	case "matrix":
		k = Matrix{S: s, N: n}
	case "conform":
		k = Conform{}
	case "helmholtz":
		k = Helmholtz{R0: r0}
	default:
		return nil, errs.New(errs.ErrInvalidConfiguration, "filter type %q is not available; must be one of lagrange, matrix, conform, helmholtz", name)
	}
	if err = k.validate(); err != nil {
		return nil, err
	}
	return
}
