// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package load assembles load vectors: point forces at named vertices and tractions on named
// faces or edges
package load

import (
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/par"
	"gonum.org/v1/gonum/floats"
)

// Vertex returns a load vector with the point force applied at every owned node of the named
// vertex set
//  Input:
//   comm  -- partition context
//   level -- mesh level
//   name  -- name of vertices
//   force -- [vpn] force applied at each node
func Vertex(comm par.Comm, level *mesh.Level, name string, force []float64) (f []float64, err error) {

	// check
	vpn := level.Assembler.VarsPerNode()
	if len(force) != vpn {
		return nil, errs.New(errs.ErrDimensionMismatch, "vertex load %q: force must have %d components; got %d", name, vpn, len(force))
	}

	// nodes
	nodes, err := level.Forest.NodesWithName(name)
	if err != nil {
		return nil, errs.Solver(err, "cannot find vertices %q", name)
	}
	owned, err := par.OwnedRange(level.Forest.NodeRange(), comm)
	if err != nil {
		return
	}

	// add force
	f = level.Assembler.NewVec()
	if len(f) < vpn*owned.Len() {
		return nil, errs.New(errs.ErrDimensionMismatch, "vertex load %q: assembler vector has %d entries but %d nodes are owned", name, len(f), owned.Len())
	}
	for _, n := range nodes {
		if !owned.Owns(n) {
			continue
		}
		i := owned.Local(n)
		floats.Add(f[vpn*i:vpn*(i+1)], force)
	}

	// reorder
	err = level.Assembler.ReorderVec(f)
	if err != nil {
		return nil, errs.Solver(err, "cannot reorder vertex load %q", name)
	}
	return
}

// Traction returns a load vector with the tractions applied on the elements touching the named
// faces (3D) or edges (2D). tracs holds one traction per local face (6) or edge (4); the face or
// edge touching the region selects the traction.
//  Note: the auxiliary elements of the assembler are removed afterwards; previously installed
//        ones are not restored
func Traction(level *mesh.Level, name string, tracs []mesh.Traction) (f []float64, err error) {

	// check
	nfaces := 4
	if level.Forest.Dim() == 3 {
		nfaces = 6
	}
	if len(tracs) != nfaces {
		return nil, errs.New(errs.ErrDimensionMismatch, "traction load %q: %d tractions are required in %dD; got %d", name, nfaces, level.Forest.Dim(), len(tracs))
	}

	// auxiliary elements
	asm := level.Assembler
	asm.ZeroVariables()
	hits, err := level.Forest.ElemsWithName(name)
	if err != nil {
		return nil, errs.Solver(err, "cannot find elements %q", name)
	}
	aux := new(mesh.AuxElements)
	for _, h := range hits {
		if h.Info < 0 || h.Info >= nfaces {
			return nil, errs.New(errs.ErrDimensionMismatch, "traction load %q: element %d touches face %d; faces are in [0, %d)", name, h.Elem, h.Info, nfaces)
		}
		aux.Add(h.Elem, tracs[h.Info])
	}

	// residual
	asm.SetAuxElements(aux)
	defer asm.SetAuxElements(nil)
	f = asm.NewVec()
	err = asm.AssembleRes(f)
	if err != nil {
		return nil, errs.Solver(err, "cannot assemble traction load %q", name)
	}
	floats.Scale(-1, f)
	return
}

// ConstantTraction3D returns a load vector with the same traction applied on every face of the
// elements touching the named faces
func ConstantTraction3D(level *mesh.Level, name string, t [3]float64) (f []float64, err error) {
	if level.Forest.Dim() != 3 {
		return nil, errs.New(errs.ErrDimensionMismatch, "traction load %q: constant 3D traction requires a 3D forest; got %dD", name, level.Forest.Dim())
	}
	order := level.Forest.MeshOrder()
	tracs := make([]mesh.Traction, 6)
	for face := 0; face < 6; face++ {
		tracs[face] = mesh.Traction{Order: order, Face: face, Values: []float64{t[0], t[1], t[2]}}
	}
	return Traction(level, name, tracs)
}

// Sum adds all vectors into dst
func Sum(dst []float64, vecs ...[]float64) error {
	for k, v := range vecs {
		if len(v) != len(dst) {
			return errs.New(errs.ErrDimensionMismatch, "load vector %d has %d entries; %d expected", k, len(v), len(dst))
		}
		floats.Add(dst, v)
	}
	return nil
}
