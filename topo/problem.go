// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package topo builds multiresolution topology optimization problems and drives the adaptive
// optimization loop
package topo

import (
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/filter"
	"github.com/peekwez/tmr/inp"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/mg"
	"github.com/peekwez/tmr/par"
	"gonum.org/v1/gonum/floats"
)

// Creator discretizes a forest; it is called once per level
type Creator func(forest mesh.Forest) (*mesh.Discretization, error)

// Params holds the parameters of the mesh hierarchy
type Params struct {
	Nlevels     int         // number of levels
	Repartition bool        // repartition forests after balancing
	VarsPerNode int         // design variables per node
	Filter      filter.Kind // filter kind
	LowestOrder int         // mesh order is never reduced below this
	Scale       float64     // node coordinates scale factor
	Mg          mg.Config   // multigrid parameters
	Verbose     bool        // show messages
}

// NewParams returns the hierarchy parameters given in a topology file
func NewParams(d *inp.TopoData, verbose bool) (o *Params, err error) {
	o = &Params{
		Nlevels:     d.Nlevels,
		Repartition: d.Repartition,
		VarsPerNode: d.VarsPerNode,
		LowestOrder: d.LowestOrder,
		Scale:       d.Scale,
		Verbose:     verbose,
	}
	o.Filter, err = filter.ParseKind(d.Filter.Type, d.Filter.S, d.Filter.N, d.Filter.R0)
	if err != nil {
		return nil, err
	}
	o.Mg.SetDefault()
	o.Mg.Omega = d.Mg.Omega
	o.Mg.CoarseDirect = d.Mg.CoarseDirect
	o.Mg.Chebyshev = d.Mg.Chebyshev
	o.Mg.ChebDegree = d.Mg.ChebDegree
	o.Mg.SmoothIters = d.Mg.SmoothIters
	o.Mg.ItersPerLevel = d.Mg.ItersPerLevel
	return
}

// check validates the parameters
func (o *Params) check() error {
	bad := func(msg string, prm ...interface{}) error {
		return errs.New(errs.ErrInvalidConfiguration, msg, prm...)
	}
	if o.Nlevels < 1 {
		return bad("number of levels must be at least 1; got %d", o.Nlevels)
	}
	if o.VarsPerNode < 1 {
		return bad("design variables per node must be at least 1; got %d", o.VarsPerNode)
	}
	if o.Filter == nil {
		return bad("filter kind must be given")
	}
	if o.Scale <= 0 {
		return bad("scale factor must be positive; got %g", o.Scale)
	}
	return nil
}

// Problem holds the mesh hierarchy, the multigrid and the design space
type Problem struct {
	Comm   par.Comm      // partition context
	Levels []*mesh.Level // levels; finest first
	Mg     *mg.Mg        // multigrid
	Filter *filter.Space // design space
}

// Finest returns the finest level
func (o *Problem) Finest() *mesh.Level { return o.Levels[0] }

// Nlevels returns the number of levels
func (o *Problem) Nlevels() int { return len(o.Levels) }

// NewDesignVec returns a zeroed design vector
func (o *Problem) NewDesignVec() *filter.Vec { return o.Filter.NewVec() }

// CreateProblem builds the mesh hierarchy from forest, the multigrid and the design space.
// Coarser levels first reduce the mesh order, down to LowestOrder, and then coarsen the mesh.
// Nothing is returned if any step fails.
//  Note: balancing and repartitioning are collective; all processes must call CreateProblem
//        together
func CreateProblem(comm par.Comm, forest mesh.Forest, creator Creator, prms *Params) (o *Problem, err error) {

	// check
	if prms == nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "hierarchy parameters must be given")
	}
	if err = prms.check(); err != nil {
		return
	}
	if forest == nil || creator == nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "forest and discretization callback must be given")
	}
	verbose := par.ShowMsg(comm, prms.Verbose)

	// finest level
	if err = balance(forest, prms.Repartition); err != nil {
		return nil, errs.Solver(err, "cannot balance finest forest")
	}
	lvl, err := discretize(forest, creator, 0)
	if err != nil {
		return
	}
	levels := []*mesh.Level{lvl}

	// coarser levels
	for i := 1; i < prms.Nlevels; i++ {
		prev := levels[i-1].Forest
		order, interp := prev.MeshOrder(), prev.InterpType()
		var f mesh.Forest
		if order > prms.LowestOrder {
			if f, err = prev.Duplicate(); err != nil {
				return nil, errs.Solver(err, "cannot duplicate forest for level %d", i)
			}
			if err = f.SetMeshOrder(order-1, interp); err != nil {
				return nil, errs.Solver(err, "cannot set mesh order of level %d", i)
			}
		} else {
			if f, err = prev.Coarsen(); err != nil {
				return nil, errs.Solver(err, "cannot coarsen forest for level %d", i)
			}
			if err = f.SetMeshOrder(order, interp); err != nil {
				return nil, errs.Solver(err, "cannot set mesh order of level %d", i)
			}
			if err = balance(f, prms.Repartition); err != nil {
				return nil, errs.Solver(err, "cannot balance forest of level %d", i)
			}
		}
		if lvl, err = discretize(f, creator, i); err != nil {
			return
		}
		levels = append(levels, lvl)
		if verbose {
			io.Pf("level %d: order = %d, nodes = %d\n", i, f.MeshOrder(), lvl.Assembler.NumNodes())
		}
	}

	// scale coordinates
	if prms.Scale != 1 {
		for i, l := range levels {
			X, err := l.Assembler.Nodes()
			if err != nil {
				return nil, errs.Solver(err, "cannot get nodes of level %d", i)
			}
			floats.Scale(prms.Scale, X)
			if err = l.Assembler.SetNodes(X); err != nil {
				return nil, errs.Solver(err, "cannot set nodes of level %d", i)
			}
		}
	}

	// multigrid
	assemblers := make([]mesh.Assembler, len(levels))
	forests := make([]mesh.Forest, len(levels))
	for i, l := range levels {
		assemblers[i], forests[i] = l.Assembler, l.Forest
	}
	mgrid, err := mg.New(comm, assemblers, forests, &prms.Mg)
	if err != nil {
		return
	}

	// design space
	space, err := filter.New(comm, prms.Filter, levels, prms.VarsPerNode)
	if err != nil {
		return
	}
	if verbose {
		io.Pforan("%d levels; %s filter with %d design variables\n", len(levels), prms.Filter.Name(), space.Dim())
	}
	return &Problem{Comm: comm, Levels: levels, Mg: mgrid, Filter: space}, nil
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// balance balances and optionally repartitions a forest
func balance(f mesh.Forest, repartition bool) (err error) {
	if err = f.Balance(true); err != nil {
		return
	}
	if repartition {
		err = f.Repartition()
	}
	return
}

// discretize calls the discretization callback and checks its output
func discretize(f mesh.Forest, creator Creator, index int) (*mesh.Level, error) {
	d, err := creator(f)
	if err != nil {
		return nil, errs.Solver(err, "discretization of level %d failed", index)
	}
	if d == nil || d.Assembler == nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "discretization of level %d returned no assembler", index)
	}
	return mesh.NewLevel(f, d), nil
}
