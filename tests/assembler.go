// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tests

import (
	"github.com/cpmech/gosl/chk"
	"github.com/peekwez/tmr/mesh"
)

// Material returns a fixed design-dependent output value
type Material struct {
	Rho float64 // density
}

// DVOutputValue returns the density for any index and point
func (o *Material) DVOutputValue(index int, pt [3]float64) float64 { return o.Rho }

// Assembler is a discretization on a QuadForest whose residual holds the consistent nodal
// forces of the auxiliary tractions with opposite sign at the nodes owned by the forest's process
type Assembler struct {
	Forest    *QuadForest // mesh
	Vpn       int         // variables per node
	Density   []float64   // [nelem] density of elements; nil means no material
	Reordered int         // number of calls to ReorderVec
	Zeroed    int         // number of calls to ZeroVariables
	Fail      error       // if set, AssembleRes returns this error

	aux *mesh.AuxElements // auxiliary elements
	x   []float64         // node coordinates
}

// NewAssembler returns a new assembler; the forest must not change while the assembler is used
func NewAssembler(forest *QuadForest, vpn int) (o *Assembler) {
	o = &Assembler{Forest: forest, Vpn: vpn}
	for j := 0; j < forest.NodesY(); j++ {
		for i := 0; i < forest.NodesX(); i++ {
			x, y := forest.X(i, j)
			o.x = append(o.x, x, y, 0)
		}
	}
	return
}

func (o *Assembler) VarsPerNode() int { return o.Vpn }

func (o *Assembler) NumNodes() int {
	r := o.Forest.NodeRange()
	return r[o.Forest.Rank+1] - r[o.Forest.Rank]
}

func (o *Assembler) NumElements() int { return o.Forest.Nx * o.Forest.Ny }

func (o *Assembler) NewVec() []float64 { return make([]float64, o.Vpn*o.NumNodes()) }

func (o *Assembler) ReorderVec(v []float64) error {
	o.Reordered++
	return nil
}

func (o *Assembler) ZeroVariables() { o.Zeroed++ }

func (o *Assembler) AssembleRes(res []float64) error {
	if o.Fail != nil {
		return o.Fail
	}
	if len(res) != o.Vpn*o.NumNodes() {
		return chk.Err("residual must have %d entries; got %d", o.Vpn*o.NumNodes(), len(res))
	}
	for i := range res {
		res[i] = 0
	}
	if o.aux == nil {
		return nil
	}
	lo := o.Vpn * o.Forest.NodeRange()[o.Forest.Rank]
	full := make([]float64, o.Vpn*o.Forest.Nnodes())
	for _, a := range o.aux.Items {
		nodes, length := o.Forest.EdgeNodes(a.Elem, a.Traction.Face)
		share := length / float64(len(nodes)-1)
		for k, n := range nodes {
			w := share
			if k == 0 || k == len(nodes)-1 {
				w = share / 2
			}
			for c := 0; c < o.Vpn && c < len(a.Traction.Values); c++ {
				full[o.Vpn*n+c] -= w * a.Traction.Values[c]
			}
		}
	}
	copy(res, full[lo:])
	return nil
}

func (o *Assembler) AuxElements() *mesh.AuxElements { return o.aux }

func (o *Assembler) SetAuxElements(aux *mesh.AuxElements) { o.aux = aux }

func (o *Assembler) Nodes() ([]float64, error) { return append([]float64{}, o.x...), nil }

func (o *Assembler) SetNodes(X []float64) error {
	if len(X) != len(o.x) {
		return chk.Err("there must be %d coordinates; got %d", len(o.x), len(X))
	}
	copy(o.x, X)
	return nil
}

func (o *Assembler) Constitutive(elem int) mesh.Constitutive {
	if o.Density == nil {
		return nil
	}
	return &Material{Rho: o.Density[elem]}
}

// Creator returns a discretization callback creating Assemblers with uniform density rho. The
// forest is its own filter mesh.
func Creator(vpn int, rho float64) func(mesh.Forest) (*mesh.Discretization, error) {
	return func(f mesh.Forest) (*mesh.Discretization, error) {
		qf, ok := f.(*QuadForest)
		if !ok {
			return nil, chk.Err("cannot discretize %T", f)
		}
		asm := NewAssembler(qf, vpn)
		asm.Density = make([]float64, qf.Nx*qf.Ny)
		for i := range asm.Density {
			asm.Density[i] = rho
		}
		d := &mesh.Discretization{Assembler: asm, Filter: qf, VarMap: qf.NodeRange()}
		for i := 0; i < qf.Nnodes(); i++ {
			d.Indices = append(d.Indices, i)
		}
		return d, nil
	}
}
