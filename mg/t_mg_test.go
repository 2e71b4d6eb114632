// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mg_test

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/mg"
	"github.com/peekwez/tmr/par"
	"github.com/peekwez/tmr/tests"
	"github.com/stretchr/testify/require"
)

func Test_mg01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("mg01")

	// three levels: 4×4, 2×2 and 1×1 quadrilaterals
	var forests []mesh.Forest
	var assemblers []mesh.Assembler
	for _, n := range []int{4, 2, 1} {
		qf := tests.NewQuadForest(n, n, 1, 1, 2)
		forests = append(forests, qf)
		assemblers = append(assemblers, tests.NewAssembler(qf, 1))
	}

	var cfg mg.Config
	cfg.SetDefault()
	m, err := mg.New(par.Serial(), assemblers, forests, &cfg)
	require.NoError(tst, err)
	chk.Int(tst, "nlevels", m.Nlevels(), 3)
	require.Equal(tst, mg.GaussSeidel, m.Level(0).Smoother)
	require.Equal(tst, mg.Direct, m.Level(2).Smoother)
	require.Nil(tst, m.Level(2).Interp)
	io.Pforan("%v", m.Info())

	// constant field is kept by interpolation
	coarse := []float64{2, 2, 2, 2, 2, 2, 2, 2, 2}
	fine := make([]float64, 25)
	require.NoError(tst, m.Interpolate(0, coarse, fine))
	for i := range fine {
		chk.Float64(tst, "fine", 1e-15, fine[i], 2)
	}

	// restriction of ones sums the weights of each coarse node
	ones := make([]float64, 9)
	for i := range ones {
		ones[i] = 1
	}
	sums := make([]float64, 4)
	require.NoError(tst, m.Restrict(1, ones, sums))
	chk.Array(tst, "sums", 1e-15, sums, []float64{2.25, 2.25, 2.25, 2.25})

	// no operator below the coarsest level
	require.ErrorIs(tst, m.Interpolate(2, sums, ones), errs.ErrDimensionMismatch)
}

func Test_mg02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("mg02")

	qf := tests.NewQuadForest(2, 2, 1, 1, 2)
	asm := tests.NewAssembler(qf, 1)

	_, err := mg.New(par.Serial(), nil, nil, nil)
	require.ErrorIs(tst, err, errs.ErrDimensionMismatch)
	_, err = mg.New(par.Serial(), []mesh.Assembler{asm}, []mesh.Forest{qf, qf}, nil)
	require.ErrorIs(tst, err, errs.ErrDimensionMismatch)

	cfg := mg.Config{Omega: 1, SmoothIters: 1, ItersPerLevel: 1, Chebyshev: true, ChebDegree: 3, ChebLower: 2, ChebUpper: 1}
	_, err = mg.New(par.Serial(), []mesh.Assembler{asm}, []mesh.Forest{qf}, &cfg)
	require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)

	// Chebyshev smoothers everywhere without coarse direct solve
	cfg.SetDefault()
	cfg.Chebyshev, cfg.CoarseDirect = true, false
	m, err := mg.New(par.Serial(), []mesh.Assembler{asm, tests.NewAssembler(tests.NewQuadForest(1, 1, 1, 1, 2), 1)},
		[]mesh.Forest{qf, tests.NewQuadForest(1, 1, 1, 1, 2)}, &cfg)
	require.NoError(tst, err)
	require.Equal(tst, mg.Chebyshev, m.Level(1).Smoother)
}

func Test_mg03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("mg03")

	// 4×4 and 2×2 quadrilaterals over two processes: fine nodes [0,12) and [12,25); coarse
	// nodes [0,4) and [4,9)
	fines := make([][]float64, 2)
	sums := make([][]float64, 2)
	errors := tests.Run(2, func(comm par.Comm) error {
		var forests []mesh.Forest
		var assemblers []mesh.Assembler
		for _, n := range []int{4, 2} {
			qf := tests.NewQuadForest(n, n, 1, 1, 2)
			qf.Rank, qf.Nprocs = comm.Rank(), 2
			forests = append(forests, qf)
			assemblers = append(assemblers, tests.NewAssembler(qf, 1))
		}
		m, err := mg.New(comm, assemblers, forests, nil)
		if err != nil {
			return err
		}

		// coarse field x + y
		r := comm.Rank()
		coarse := assemblers[1].NewVec()
		qf := forests[1].(*tests.QuadForest)
		lo := qf.NodeRange()[r]
		for k := range coarse {
			n := lo + k
			x, y := qf.X(n%qf.NodesX(), n/qf.NodesX())
			coarse[k] = x + y
		}
		fines[r] = assemblers[0].NewVec()
		if err = m.Interpolate(0, coarse, fines[r]); err != nil {
			return err
		}

		// restriction of ones
		ones := assemblers[0].NewVec()
		for i := range ones {
			ones[i] = 1
		}
		sums[r] = assemblers[1].NewVec()
		return m.Restrict(0, ones, sums[r])
	})
	for _, err := range errors {
		require.NoError(tst, err)
	}

	// bilinear interpolation reproduces x + y on all fine nodes
	fine := tests.NewQuadForest(4, 4, 1, 1, 2)
	all := append(append([]float64{}, fines[0]...), fines[1]...)
	chk.Int(tst, "fine nodes", len(all), fine.Nnodes())
	for n, v := range all {
		x, y := fine.X(n%fine.NodesX(), n/fine.NodesX())
		chk.Float64(tst, "x+y", 1e-15, v, x+y)
	}

	// the fine weights of each coarse node add up to 2.25 at corners, 3 on edges and 4 inside
	chk.Array(tst, "sums", 1e-15, append(append([]float64{}, sums[0]...), sums[1]...),
		[]float64{2.25, 3, 2.25, 3, 4, 3, 2.25, 3, 2.25})
}
