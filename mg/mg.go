// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mg implements the multigrid hierarchy over mesh levels
package mg

import (
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/par"
)

// Smoother is the smoother used on a level
type Smoother int

const (
	GaussSeidel Smoother = iota // successive over-relaxation
	Chebyshev                   // Chebyshev polynomial
	Direct                      // direct solve (coarsest level only)
)

func (o Smoother) String() string {
	switch o {
	case Chebyshev:
		return "Chebyshev"
	case Direct:
		return "Direct"
	}
	return "GaussSeidel"
}

// Config holds multigrid parameters
type Config struct {
	Omega         float64 // relaxation factor
	SmoothIters   int     // smoothing iterations
	SorSymm       bool    // symmetric SOR
	ItersPerLevel int     // iterations per level
	CoarseDirect  bool    // direct solve on coarsest level
	Chebyshev     bool    // Chebyshev smoothers instead of Gauss-Seidel
	ChebDegree    int     // degree of Chebyshev polynomial
	ChebLower     float64 // lower bound of eigenvalue range (relative)
	ChebUpper     float64 // upper bound of eigenvalue range (relative)
}

// SetDefault sets default values
func (o *Config) SetDefault() {
	o.Omega = 1.0
	o.SmoothIters = 1
	o.ItersPerLevel = 1
	o.CoarseDirect = true
	o.ChebDegree = 3
	o.ChebLower = 1.0 / 30.0
	o.ChebUpper = 1.1
}

// check validates the parameters
func (o *Config) check() error {
	bad := func(msg string, prm ...interface{}) error {
		return errs.New(errs.ErrInvalidConfiguration, "multigrid: "+msg, prm...)
	}
	if o.Omega <= 0 {
		return bad("omega must be positive; got %g", o.Omega)
	}
	if o.SmoothIters < 1 || o.ItersPerLevel < 1 {
		return bad("smoothing iterations and iterations per level must be at least 1; got %d and %d", o.SmoothIters, o.ItersPerLevel)
	}
	if o.Chebyshev {
		if o.ChebDegree < 1 {
			return bad("Chebyshev degree must be at least 1; got %d", o.ChebDegree)
		}
		if o.ChebLower <= 0 || o.ChebLower >= o.ChebUpper {
			return bad("Chebyshev range [%g, %g] is invalid", o.ChebLower, o.ChebUpper)
		}
	}
	return nil
}

// Level holds one multigrid level
type Level struct {
	Assembler mesh.Assembler // discretization
	Forest    mesh.Forest    // mesh
	Interp    *mesh.Interp   // interpolation from the next (coarser) level; nil on the coarsest
	Smoother  Smoother       // smoother kind
}

// Mg holds the multigrid hierarchy; level 0 is the finest
type Mg struct {
	Cfg    Config   // parameters
	levels []*Level // all levels
}

// New creates a multigrid hierarchy. Interpolation operators use the node ownership of the
// forests; each process holds the rows of its fine nodes.
//  Note: New, Interpolate and Restrict are collective; all processes must call them together
func New(comm par.Comm, assemblers []mesh.Assembler, forests []mesh.Forest, cfg *Config) (o *Mg, err error) {

	// check
	if cfg == nil {
		cfg = new(Config)
		cfg.SetDefault()
	}
	if err = cfg.check(); err != nil {
		return
	}
	n := len(assemblers)
	if n == 0 || n != len(forests) {
		return nil, errs.New(errs.ErrDimensionMismatch, "multigrid needs equal, non-zero numbers of assemblers and forests; got %d and %d", n, len(forests))
	}

	// levels
	o = &Mg{Cfg: *cfg}
	for i := 0; i < n; i++ {
		lvl := &Level{Assembler: assemblers[i], Forest: forests[i], Smoother: GaussSeidel}
		if cfg.Chebyshev {
			lvl.Smoother = Chebyshev
		}
		if i == n-1 && cfg.CoarseDirect {
			lvl.Smoother = Direct
		}
		o.levels = append(o.levels, lvl)
	}

	// interpolation operators: coarse (i+1) to fine (i)
	for i := 0; i < n-1; i++ {
		fine, coarse := assemblers[i], assemblers[i+1]
		if fine.VarsPerNode() != coarse.VarsPerNode() {
			return nil, errs.New(errs.ErrDimensionMismatch, "multigrid level %d has %d variables per node but level %d has %d", i, fine.VarsPerNode(), i+1, coarse.VarsPerNode())
		}
		op, err := mesh.NewInterp(comm, forests[i].NodeRange(), forests[i+1].NodeRange(), fine.VarsPerNode())
		if err != nil {
			return nil, err
		}
		if op.Rows.Len() != fine.NumNodes() || op.Cols.Len() != coarse.NumNodes() {
			return nil, errs.New(errs.ErrDimensionMismatch, "multigrid level %d owns %d and %d nodes but the forests give %d and %d", i, fine.NumNodes(), coarse.NumNodes(), op.Rows.Len(), op.Cols.Len())
		}
		err = forests[i].CreateInterpolation(forests[i+1], op)
		if err != nil {
			return nil, errs.Solver(err, "cannot create multigrid interpolation for level %d", i)
		}
		op.Initialize()
		o.levels[i].Interp = op
	}
	return
}

// Nlevels returns the number of levels
func (o *Mg) Nlevels() int { return len(o.levels) }

// Level returns a level
func (o *Mg) Level(i int) *Level { return o.levels[i] }

// Interpolate computes fine := P coarse where P interpolates level+1 onto level
func (o *Mg) Interpolate(level int, coarse, fine []float64) error {
	op, err := o.interp(level)
	if err != nil {
		return err
	}
	return op.Mult(coarse, fine)
}

// Restrict computes coarse := Pᵀ fine where P interpolates level+1 onto level
func (o *Mg) Restrict(level int, fine, coarse []float64) error {
	op, err := o.interp(level)
	if err != nil {
		return err
	}
	return op.MultTranspose(fine, coarse)
}

// Info returns a description of the levels
func (o *Mg) Info() (l string) {
	for i, lvl := range o.levels {
		l += io.Sf("level %d: %d nodes, smoother = %v\n", i, lvl.Assembler.NumNodes(), lvl.Smoother)
	}
	return
}

func (o *Mg) interp(level int) (*mesh.Interp, error) {
	if level < 0 || level >= len(o.levels)-1 {
		return nil, errs.New(errs.ErrDimensionMismatch, "no interpolation operator between levels %d and %d; there are %d levels", level, level+1, len(o.levels))
	}
	return o.levels[level].Interp, nil
}
