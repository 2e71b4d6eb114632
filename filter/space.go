// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package filter implements design spaces (filters) and the transfer of design vectors
// between them
package filter

import (
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/par"
)

// Space is the design space defined by a filter over a mesh hierarchy. A Space does not
// change after New returns.
type Space struct {
	comm    par.Comm      // partition context
	kind    Kind          // filter kind
	vpn     int           // design variables per node
	meshes  []mesh.Forest // [nlevels] design meshes; finest first
	varMaps [][]int       // [nlevels] lagrange only: design variable offsets
	indices [][]int       // [nlevels] lagrange only: design variable indices
	offsets []int         // [nproc+1] node ownership offsets of finest design mesh
	owned   par.Range     // owned nodes of finest design mesh
}

// New creates a new design space
//  Input:
//   comm   -- partition context
//   kind   -- filter kind
//   levels -- mesh levels; finest first
//   vpn    -- design variables per node
func New(comm par.Comm, kind Kind, levels []*mesh.Level, vpn int) (o *Space, err error) {

	// check
	bad := func(msg string, prm ...interface{}) error {
		return errs.New(errs.ErrInvalidConfiguration, msg, prm...)
	}
	if kind == nil {
		return nil, bad("filter kind must be given")
	}
	if err = kind.validate(); err != nil {
		return nil, err
	}
	if vpn < 1 {
		return nil, bad("design variables per node must be at least 1; got %d", vpn)
	}
	if len(levels) < 1 {
		return nil, bad("%s filter needs at least one level", kind.Name())
	}

	// meshes
	o = &Space{comm: comm, kind: kind, vpn: vpn}
	for i, lvl := range levels {
		var m mesh.Forest
		switch k := kind.(type) {
		case Lagrange:
			if lvl.VarMap == nil || lvl.Indices == nil {
				return nil, bad("lagrange filter requires the variable map and indices on level %d", i)
			}
			if _, err = par.OwnedRange(lvl.VarMap, comm); err != nil {
				return nil, bad("lagrange filter: variable map on level %d is invalid: %v", i, err)
			}
			m = lvl.Filter
			o.varMaps = append(o.varMaps, lvl.VarMap)
			o.indices = append(o.indices, lvl.Indices)
		case Matrix:
			m = lvl.Forest
		case Conform, Helmholtz:
			m = lvl.Filter
		default:
			return nil, bad("filter kind %T is not available", k)
		}
		if m == nil {
			return nil, bad("%s filter requires a design mesh on level %d", kind.Name(), i)
		}
		o.meshes = append(o.meshes, m)
	}

	// owned nodes of finest mesh. The lagrange variable map sets the ownership of design
	// variables; it must number the same nodes as the design mesh
	o.offsets = o.meshes[0].NodeRange()
	if o.varMaps != nil {
		vm := o.varMaps[0]
		if vm[len(vm)-1] != last(o.offsets) {
			return nil, bad("lagrange filter: variable map numbers %d nodes but the design mesh has %d", vm[len(vm)-1], last(o.offsets))
		}
		o.offsets = vm
	}
	o.owned, err = par.OwnedRange(o.offsets, comm)
	if err != nil {
		return nil, err
	}
	return
}

// Kind returns the filter kind
func (o *Space) Kind() Kind { return o.kind }

// VarsPerNode returns the number of design variables per node
func (o *Space) VarsPerNode() int { return o.vpn }

// Dim returns the number of design variables owned by this process on the finest design mesh
func (o *Space) Dim() int { return o.vpn * o.owned.Len() }

// Mesh returns the finest design mesh
func (o *Space) Mesh() mesh.Forest { return o.meshes[0] }

// Nlevels returns the number of levels
func (o *Space) Nlevels() int { return len(o.meshes) }

// LevelMesh returns the design mesh of a level
func (o *Space) LevelMesh(level int) mesh.Forest { return o.meshes[level] }

// VarMap returns the design variable offsets of a level (lagrange filter only; nil otherwise)
func (o *Space) VarMap(level int) []int {
	if o.varMaps == nil {
		return nil
	}
	return o.varMaps[level]
}

// Indices returns the design variable indices of a level (lagrange filter only; nil otherwise).
// The indices are kept as given by the discretization and are not used by Transfer.
func (o *Space) Indices(level int) []int {
	if o.indices == nil {
		return nil
	}
	return o.indices[level]
}

// NewVec returns a new zeroed design vector in this space
func (o *Space) NewVec() *Vec {
	return &Vec{X: make([]float64, o.Dim()), space: o}
}

// Vec is a design vector belonging to a Space
type Vec struct {
	X     []float64 // values; vpn per owned node
	space *Space    // space that created this vector
}

// Space returns the space the vector belongs to
func (o *Vec) Space() *Space { return o.space }

// last returns the last entry of offsets or zero
func last(offsets []int) int {
	if len(offsets) == 0 {
		return 0
	}
	return offsets[len(offsets)-1]
}
