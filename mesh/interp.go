// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import (
	"github.com/cpmech/gosl/chk"
	"github.com/james-bowman/sparse"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/par"
	"gonum.org/v1/gonum/mat"
)

// Interp is a sparse operator interpolating nodal values from a source mesh to a destination
// mesh. Rows correspond to destination nodes and columns to source nodes, both in global
// numbering; each process holds the rows of the destination nodes it owns. Each of the
// VarsPerNode components is interpolated independently with the same weights.
//  Note: Mult and MultTranspose are collective; all processes must call them together, including
//        processes that own no destination nodes
type Interp struct {
	Nrows       int       // total number of destination nodes
	Ncols       int       // total number of source nodes
	Rows        par.Range // destination nodes owned by this process
	Cols        par.Range // source nodes owned by this process
	VarsPerNode int       // components per node

	comm par.Comm    // processes sharing the operator
	dok  *sparse.DOK // weights while being added; nil if no rows are owned
	csr  *sparse.CSR // weights after Initialize
	done bool        // Initialize was called
}

// NewInterp returns a new interpolation operator
//  Input:
//   comm       -- partition context
//   dstOffsets -- ownership offsets of destination nodes (nproc+1)
//   srcOffsets -- ownership offsets of source nodes (nproc+1)
func NewInterp(comm par.Comm, dstOffsets, srcOffsets []int, varsPerNode int) (o *Interp, err error) {
	if varsPerNode < 1 {
		return nil, errs.New(errs.ErrDimensionMismatch, "interpolation needs at least one variable per node; got %d", varsPerNode)
	}
	o = &Interp{VarsPerNode: varsPerNode, comm: comm}
	if o.Rows, err = par.OwnedRange(dstOffsets, comm); err != nil {
		return nil, err
	}
	if o.Cols, err = par.OwnedRange(srcOffsets, comm); err != nil {
		return nil, err
	}
	o.Nrows, o.Ncols = dstOffsets[len(dstOffsets)-1], srcOffsets[len(srcOffsets)-1]
	if o.Nrows < 1 || o.Ncols < 1 {
		return nil, errs.New(errs.ErrDimensionMismatch, "interpolation needs nodes on both meshes; got %d destination and %d source nodes", o.Nrows, o.Ncols)
	}
	if o.Rows.Len() > 0 {
		o.dok = sparse.NewDOK(o.Rows.Len(), o.Ncols)
	}
	return
}

// Add adds weights of source nodes cols to the destination node row. The row must be owned by
// this process.
func (o *Interp) Add(row int, cols []int, weights []float64) (err error) {
	if o.done {
		return chk.Err("cannot add weights to an initialised interpolation")
	}
	if len(cols) != len(weights) {
		return errs.New(errs.ErrDimensionMismatch, "number of columns (%d) and weights (%d) differ", len(cols), len(weights))
	}
	if !o.Rows.Owns(row) {
		return errs.New(errs.ErrDimensionMismatch, "row %d is outside the owned range [%d, %d)", row, o.Rows.Lo, o.Rows.Hi)
	}
	i := o.Rows.Local(row)
	for k, j := range cols {
		if j < 0 || j >= o.Ncols {
			return errs.New(errs.ErrDimensionMismatch, "column %d is outside [0, %d)", j, o.Ncols)
		}
		o.dok.Set(i, j, o.dok.At(i, j)+weights[k])
	}
	return
}

// Initialize freezes the weights; no more weights can be added afterwards
func (o *Interp) Initialize() {
	if o.done {
		return
	}
	if o.dok != nil {
		o.csr = o.dok.ToCSR()
	}
	o.done = true
}

// Mult computes dst := P src where src holds the owned source nodes and dst the owned
// destination nodes. Source values owned by other processes are gathered first.
func (o *Interp) Mult(src, dst []float64) (err error) {
	if err = o.check(src, o.Cols, dst, o.Rows); err != nil {
		return
	}
	vpn := o.VarsPerNode
	full := o.gather(src)
	if o.csr == nil {
		return
	}
	x := mat.NewVecDense(o.Ncols, nil)
	y := mat.NewVecDense(o.Rows.Len(), nil)
	for k := 0; k < vpn; k++ {
		for j := 0; j < o.Ncols; j++ {
			x.SetVec(j, full[vpn*j+k])
		}
		y.MulVec(o.csr, x)
		for i := 0; i < o.Rows.Len(); i++ {
			dst[vpn*i+k] = y.AtVec(i)
		}
	}
	return
}

// MultTranspose computes dst := Pᵀ src where src holds the owned destination nodes and dst the
// owned source nodes. Contributions to source nodes owned by other processes are summed there.
func (o *Interp) MultTranspose(src, dst []float64) (err error) {
	if err = o.check(src, o.Rows, dst, o.Cols); err != nil {
		return
	}
	vpn := o.VarsPerNode
	local := make([]float64, vpn*o.Ncols)
	if o.csr != nil {
		x := mat.NewVecDense(o.Rows.Len(), nil)
		y := mat.NewVecDense(o.Ncols, nil)
		for k := 0; k < vpn; k++ {
			for i := 0; i < o.Rows.Len(); i++ {
				x.SetVec(i, src[vpn*i+k])
			}
			y.MulVec(o.csr.T(), x)
			for j := 0; j < o.Ncols; j++ {
				local[vpn*j+k] = y.AtVec(j)
			}
		}
	}
	full := make([]float64, len(local))
	o.comm.AllReduceSum(full, local)
	copy(dst, full[vpn*o.Cols.Lo:vpn*o.Cols.Hi])
	return
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// check checks the state and the lengths of the input and output vectors
func (o *Interp) check(src []float64, in par.Range, dst []float64, out par.Range) error {
	if !o.done {
		return chk.Err("interpolation must be initialised before use")
	}
	vpn := o.VarsPerNode
	if len(src) != vpn*in.Len() {
		return errs.New(errs.ErrDimensionMismatch, "source vector must have %d entries; got %d", vpn*in.Len(), len(src))
	}
	if len(dst) != vpn*out.Len() {
		return errs.New(errs.ErrDimensionMismatch, "destination vector must have %d entries; got %d", vpn*out.Len(), len(dst))
	}
	return nil
}

// gather returns the values of all source nodes given the owned ones
func (o *Interp) gather(src []float64) (full []float64) {
	vpn := o.VarsPerNode
	local := make([]float64, vpn*o.Ncols)
	copy(local[vpn*o.Cols.Lo:], src)
	full = make([]float64, len(local))
	o.comm.AllReduceSum(full, local)
	return
}
