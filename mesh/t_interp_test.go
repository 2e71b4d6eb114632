// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh_test

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/par"
	"github.com/peekwez/tmr/tests"
	"github.com/stretchr/testify/require"
)

// addMidpoints fills the owned rows of an interpolation of 3 fine nodes from 2 coarse nodes
func addMidpoints(op *mesh.Interp) error {
	rows := [][]int{{0}, {0, 1}, {1}}
	weights := [][]float64{{1}, {0.5, 0.5}, {1}}
	for i := op.Rows.Lo; i < op.Rows.Hi; i++ {
		if err := op.Add(i, rows[i], weights[i]); err != nil {
			return err
		}
	}
	return nil
}

func Test_interp01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("interp01")

	// 3 fine nodes from 2 coarse nodes: midpoint in the middle
	op, err := mesh.NewInterp(par.Serial(), []int{0, 3}, []int{0, 2}, 2)
	require.NoError(tst, err)
	require.NoError(tst, addMidpoints(op))
	op.Initialize()

	coarse := []float64{1, 10, 3, 30}
	fine := make([]float64, 6)
	require.NoError(tst, op.Mult(coarse, fine))
	chk.Array(tst, "fine", 1e-15, fine, []float64{1, 10, 2, 20, 3, 30})

	back := make([]float64, 4)
	require.NoError(tst, op.MultTranspose(fine, back))
	chk.Array(tst, "Pᵀ fine", 1e-15, back, []float64{2, 20, 4, 40})
}

func Test_interp02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("interp02")

	_, err := mesh.NewInterp(par.Serial(), []int{0, 0}, []int{0, 2}, 1)
	require.ErrorIs(tst, err, errs.ErrDimensionMismatch)
	_, err = mesh.NewInterp(par.Serial(), []int{0, 2}, []int{0, 2}, 0)
	require.ErrorIs(tst, err, errs.ErrDimensionMismatch)
	_, err = mesh.NewInterp(par.Serial(), []int{0, 1, 2}, []int{0, 2}, 1)
	require.ErrorIs(tst, err, errs.ErrDimensionMismatch)

	op, err := mesh.NewInterp(par.Serial(), []int{0, 2}, []int{0, 2}, 1)
	require.NoError(tst, err)
	require.ErrorIs(tst, op.Add(2, []int{0}, []float64{1}), errs.ErrDimensionMismatch)
	require.ErrorIs(tst, op.Add(0, []int{5}, []float64{1}), errs.ErrDimensionMismatch)
	require.ErrorIs(tst, op.Add(0, []int{0, 1}, []float64{1}), errs.ErrDimensionMismatch)

	// not initialised
	require.Error(tst, op.Mult([]float64{1, 2}, make([]float64, 2)))

	// repeated entries are summed
	require.NoError(tst, op.Add(0, []int{0}, []float64{0.25}))
	require.NoError(tst, op.Add(0, []int{0}, []float64{0.75}))
	require.NoError(tst, op.Add(1, []int{1}, []float64{2}))
	op.Initialize()
	require.Error(tst, op.Add(1, []int{0}, []float64{1}))

	y := make([]float64, 2)
	require.NoError(tst, op.Mult([]float64{3, 4}, y))
	chk.Array(tst, "y", 1e-15, y, []float64{3, 8})

	require.ErrorIs(tst, op.Mult([]float64{3}, y), errs.ErrDimensionMismatch)
	require.ErrorIs(tst, op.Mult([]float64{3, 4}, make([]float64, 3)), errs.ErrDimensionMismatch)
}

func Test_interp03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("interp03")

	// two processes: fine nodes {0,1} and {2}; coarse nodes {0} and {1}. Row 1 of process 0
	// needs the coarse node of process 1
	fines := make([][]float64, 2)
	backs := make([][]float64, 2)
	errors := tests.Run(2, func(comm par.Comm) error {
		op, err := mesh.NewInterp(comm, []int{0, 2, 3}, []int{0, 1, 2}, 2)
		if err != nil {
			return err
		}
		if err = addMidpoints(op); err != nil {
			return err
		}
		op.Initialize()
		r := comm.Rank()
		coarse := [][]float64{{1, 10}, {3, 30}}[r]
		fines[r] = make([]float64, 2*op.Rows.Len())
		if err = op.Mult(coarse, fines[r]); err != nil {
			return err
		}
		backs[r] = make([]float64, 2*op.Cols.Len())
		return op.MultTranspose(fines[r], backs[r])
	})
	for _, err := range errors {
		require.NoError(tst, err)
	}
	chk.Array(tst, "fine 0", 1e-15, fines[0], []float64{1, 10, 2, 20})
	chk.Array(tst, "fine 1", 1e-15, fines[1], []float64{3, 30})

	// contributions to coarse nodes of the other process are summed there
	chk.Array(tst, "Pᵀ fine 0", 1e-15, backs[0], []float64{2, 20})
	chk.Array(tst, "Pᵀ fine 1", 1e-15, backs[1], []float64{4, 40})
}

func Test_interp04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("interp04")

	// process 1 owns no fine nodes and process 0 owns no coarse nodes
	fines := make([][]float64, 2)
	errors := tests.Run(2, func(comm par.Comm) error {
		op, err := mesh.NewInterp(comm, []int{0, 3, 3}, []int{0, 0, 2}, 1)
		if err != nil {
			return err
		}
		if err = addMidpoints(op); err != nil {
			return err
		}
		op.Initialize()
		coarse := [][]float64{{}, {4, 8}}[comm.Rank()]
		fines[comm.Rank()] = make([]float64, op.Rows.Len())
		return op.Mult(coarse, fines[comm.Rank()])
	})
	for _, err := range errors {
		require.NoError(tst, err)
	}
	chk.Array(tst, "fine 0", 1e-15, fines[0], []float64{4, 6, 8})
	chk.Int(tst, "len(fine 1)", len(fines[1]), 0)
}

func Test_aux01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("aux01")

	var none *mesh.AuxElements
	chk.Int(tst, "nil len", none.Len(), 0)

	aux := new(mesh.AuxElements)
	aux.Add(3, mesh.Traction{Order: 2, Face: 1, Values: []float64{1, 0}})
	aux.Add(7, mesh.Traction{Order: 2, Face: 3, Values: []float64{0, 1}})
	chk.Int(tst, "len", aux.Len(), 2)
	chk.Int(tst, "elem 1", aux.Items[1].Elem, 7)
	chk.Int(tst, "face 1", aux.Items[1].Traction.Face, 3)
}
