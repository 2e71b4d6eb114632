// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo_test

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/filter"
	"github.com/peekwez/tmr/inp"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/par"
	"github.com/peekwez/tmr/tests"
	"github.com/peekwez/tmr/topo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newData returns input data with defaults, a conform filter and a vertex load at the corner
func newData(nlevels int) *inp.TopoData {
	d := new(inp.TopoData)
	d.SetDefault()
	d.Nlevels = nlevels
	d.Filter.Type = "conform"
	d.Loads = []*inp.LoadData{{Kind: "vertex", Name: "corner", Values: []float64{1}}}
	return d
}

func newParams(tst *testing.T, d *inp.TopoData) *topo.Params {
	prms, err := topo.NewParams(d, chk.Verbose)
	require.NoError(tst, err)
	return prms
}

func Test_problem01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("problem01")

	// order 3 → 2 by duplication, then coarsening
	qf := tests.NewQuadForest(4, 4, 1, 1, 3)
	p, err := topo.CreateProblem(par.Serial(), qf, tests.Creator(1, 0.9), newParams(tst, newData(3)))
	require.NoError(tst, err)
	chk.Int(tst, "nlevels", p.Nlevels(), 3)
	require.True(tst, p.Finest().Forest == qf)

	orders := make([]int, p.Nlevels())
	nnodes := make([]int, p.Nlevels())
	for i, l := range p.Levels {
		orders[i] = l.Forest.MeshOrder()
		nnodes[i] = l.Assembler.NumNodes()
	}
	chk.Ints(tst, "orders", orders, []int{3, 2, 2})
	chk.Ints(tst, "nnodes", nnodes, []int{81, 25, 9})

	// collective calls on each forest
	require.Equal(tst, []string{"balance", "repartition", "duplicate"}, qf.Log)
	require.Equal(tst, []string{"coarsen"}, p.Levels[1].Forest.(*tests.QuadForest).Log)
	require.Equal(tst, []string{"balance", "repartition"}, p.Levels[2].Forest.(*tests.QuadForest).Log)

	// multigrid and design space
	chk.Int(tst, "mg levels", p.Mg.Nlevels(), 3)
	require.Nil(tst, p.Mg.Level(2).Interp)
	chk.Int(tst, "design dim", p.Filter.Dim(), 81)
	chk.Int(tst, "design vec", len(p.NewDesignVec().X), 81)
	io.Pforan("%v", p.Mg.Info())
}

func Test_problem02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("problem02")

	// starting order below the lowest order is kept
	d := newData(2)
	d.LowestOrder = 3
	d.Repartition = false
	qf := tests.NewQuadForest(2, 2, 1, 1, 2)
	p, err := topo.CreateProblem(par.Serial(), qf, tests.Creator(1, 0.9), newParams(tst, d))
	require.NoError(tst, err)
	chk.Int(tst, "order of coarse level", p.Levels[1].Forest.MeshOrder(), 2)
	require.Equal(tst, []string{"balance", "coarsen"}, qf.Log)

	// scaled coordinates on all levels
	d = newData(2)
	d.Scale = 2.5
	qf = tests.NewQuadForest(2, 2, 1, 2, 2)
	p, err = topo.CreateProblem(par.Serial(), qf, tests.Creator(1, 0.9), newParams(tst, d))
	require.NoError(tst, err)
	for i, l := range p.Levels {
		X, err := l.Assembler.Nodes()
		require.NoError(tst, err)
		n := len(X) / 3
		chk.Float64(tst, io.Sf("x max (level %d)", i), 1e-15, X[3*(n-1)], 2.5)
		chk.Float64(tst, io.Sf("y max (level %d)", i), 1e-15, X[3*(n-1)+1], 5.0)
	}
}

func Test_problem03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("problem03")

	creator := tests.Creator(1, 0.9)

	// invalid parameters
	for _, prms := range []*topo.Params{
		nil,
		{Nlevels: 0, VarsPerNode: 1, Filter: filter.Conform{}, Scale: 1},
		{Nlevels: 2, VarsPerNode: 0, Filter: filter.Conform{}, Scale: 1},
		{Nlevels: 2, VarsPerNode: 1, Scale: 1},
		{Nlevels: 2, VarsPerNode: 1, Filter: filter.Conform{}, Scale: 0},
	} {
		p, err := topo.CreateProblem(par.Serial(), tests.NewQuadForest(2, 2, 1, 1, 2), creator, prms)
		require.Nil(tst, p)
		require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)
	}

	// unknown filter
	d := newData(2)
	d.Filter.Type = "gaussian"
	_, err := topo.NewParams(d, false)
	require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)

	// failing callback
	fail := chk.Err("out of memory")
	bad := func(f mesh.Forest) (*mesh.Discretization, error) { return nil, fail }
	p, err := topo.CreateProblem(par.Serial(), tests.NewQuadForest(2, 2, 1, 1, 2), bad, newParams(tst, newData(2)))
	require.Nil(tst, p)
	require.ErrorIs(tst, err, errs.ErrSolverFailure)
	require.ErrorIs(tst, err, fail)

	// forest that cannot be coarsened
	p, err = topo.CreateProblem(par.Serial(), tests.NewQuadForest(3, 3, 1, 1, 2), creator, newParams(tst, newData(2)))
	require.Nil(tst, p)
	require.ErrorIs(tst, err, errs.ErrSolverFailure)
}

func Test_freq01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("freq01")

	// Jacobi-Davidson defaults
	nlp := new(tests.Nlp)
	p, err := topo.AddFrequencyConstraint(nlp, 1.0, nil)
	require.NoError(tst, err)
	require.True(tst, nlp.Freq == p)

	offset := -math.Pow(2.0*math.Pi, 2)
	chk.Float64(tst, "offset", 1e-15, p.Offset, offset)
	chk.Float64(tst, "sigma", 1e-15, p.Sigma, -offset)
	chk.Float64(tst, "scale", 1e-15, p.Scale, -0.75/offset)
	chk.Float64(tst, "ks weight", 1e-15, p.KsWeight, 50)
	chk.Int(tst, "num eigs", p.NumEigs, 10)
	require.True(tst, p.UseJD)
	chk.Int(tst, "max size", p.MaxSize, 50)
	chk.Float64(tst, "tol", 1e-20, p.Tol, 5e-7)
	chk.Int(tst, "fgmres size", p.FgmresSize, 8)
	chk.Float64(tst, "eig rtol", 1e-20, p.EigRtol, 1e-6)
	chk.Float64(tst, "eig atol", 1e-20, p.EigAtol, 1e-12)
	chk.Int(tst, "num recycle", p.NumRecycle, 10)
	require.Equal(tst, topo.RecycleNum, p.Recycle)
	chk.Int(tst, "track eigen iters", p.TrackEigenIters, 2)

	// Lanczos
	p, err = topo.AddFrequencyConstraint(nlp, 2.0, map[string]interface{}{"use_jd": false, "num_eigs": 4, "offset": 3})
	require.NoError(tst, err)
	require.False(tst, p.UseJD)
	chk.Int(tst, "num eigs", p.NumEigs, 4)
	chk.Float64(tst, "offset", 1e-15, p.Offset, 3)
	chk.Float64(tst, "sigma", 1e-12, p.Sigma, math.Pow(4.0*math.Pi, 2))
	chk.Int(tst, "max lanczos", p.MaxSize, 100)
	chk.Float64(tst, "lanczos tol", 1e-40, p.Tol, 1e-30)
	chk.Int(tst, "fgmres size", p.FgmresSize, 0)
	require.Equal(tst, topo.RecycleSumTwo, p.Recycle)

	// recycling
	p, err = topo.AddFrequencyConstraint(nlp, 1.0, map[string]interface{}{"recycle_type": "sum_two"})
	require.NoError(tst, err)
	require.Equal(tst, topo.RecycleSumTwo, p.Recycle)
}

func Test_freq02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("freq02")

	nlp := new(tests.Nlp)
	_, err := topo.AddFrequencyConstraint(nlp, 1.0, map[string]interface{}{"num_eig": 4})
	require.ErrorIs(tst, err, errs.ErrUnknownOption)

	_, err = topo.AddFrequencyConstraint(nlp, 1.0, map[string]interface{}{"recycle_type": "all", "num_eigs": 2.5})
	assert.ErrorIs(tst, err, errs.ErrValueNotAllowed)
	assert.ErrorIs(tst, err, errs.ErrTypeMismatch)

	_, err = topo.AddFrequencyConstraint(nlp, 0, nil)
	require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)

	_, err = topo.AddFrequencyConstraint(nil, 1.0, nil)
	require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)
	require.Nil(tst, nlp.Freq)
}

func Test_main01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("main01")

	// one optimization, no refinement
	var created []*tests.Nlp
	d := newData(2)
	m := &topo.Main{Data: d, Creator: tests.Creator(1, 0.9), Engine: new(tests.Engine), NewNlp: tests.NlpFactory(0.5, &created)}
	qf := tests.NewQuadForest(2, 2, 1, 1, 2)
	res, err := m.Run(qf)
	require.NoError(tst, err)
	chk.Int(tst, "cycles", res.Cycles, 1)
	require.Empty(tst, res.Decisions)
	require.Len(tst, created, 1)

	// design belongs to the finest design space
	require.True(tst, res.Design.Space() == res.Problem.Filter)
	chk.Int(tst, "design length", len(res.Design.X), res.Problem.Filter.Dim())
	for i := range res.Design.X {
		chk.Float64(tst, "x", 1e-5, res.Design.X[i], 0.5)
	}

	// point force at the corner
	loads := make([]float64, qf.Nnodes())
	loads[qf.Node(2, 0)] = 1
	chk.Array(tst, "loads", 1e-17, created[0].Loads, loads)
	require.Nil(tst, created[0].Freq)
}

func Test_main02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("main02")

	// optimize, refine and optimize again
	var created []*tests.Nlp
	d := newData(2)
	d.Refine.Ncycles = 1
	d.Freq = &inp.FreqData{OmegaMin: 1.0}
	e := new(tests.Engine)
	m := &topo.Main{Data: d, Creator: tests.Creator(1, 0.9), Engine: e, NewNlp: tests.NlpFactory(0.5, &created)}
	qf := tests.NewQuadForest(2, 2, 1, 1, 2)
	res, err := m.Run(qf)
	require.NoError(tst, err)
	chk.Int(tst, "cycles", res.Cycles, 2)
	require.Len(tst, created, 2)
	require.Len(tst, res.Decisions, 1)
	chk.Ints(tst, "decisions", res.Decisions[0], []int{1, 1, 1, 1})

	// the initial forest is not refined
	chk.Int(tst, "nx of initial forest", qf.Nx, 2)
	require.Nil(tst, qf.Refined)

	// refined hierarchy
	finest := res.Problem.Finest().Forest.(*tests.QuadForest)
	chk.Int(tst, "nx of refined forest", finest.Nx, 4)
	chk.Int(tst, "design length", len(res.Design.X), res.Problem.Filter.Dim())
	chk.Int(tst, "design dim", res.Problem.Filter.Dim(), 25)

	// second optimization starts from the transferred design
	x0 := created[1].X0
	require.True(tst, x0.Space() == res.Problem.Filter)
	for i := range x0.X {
		chk.Float64(tst, "x0", 1e-5, x0.X[i], 0.5)
	}
	loads := make([]float64, finest.Nnodes())
	loads[finest.Node(4, 0)] = 1
	chk.Array(tst, "loads", 1e-17, created[1].Loads, loads)

	// frequency constraint is added to every problem
	for _, nlp := range created {
		require.NotNil(tst, nlp.Freq)
		require.True(tst, nlp.Freq.UseJD)
	}
	chk.Int(tst, "optimizers", len(e.Ips), 2)
}

func Test_main03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("main03")

	run := func(d *inp.TopoData, e *tests.Engine) error {
		m := &topo.Main{Data: d, Creator: tests.Creator(1, 0.9), Engine: e, NewNlp: tests.NlpFactory(0.5, nil)}
		_, err := m.Run(tests.NewQuadForest(2, 2, 1, 1, 2))
		return err
	}

	// missing collaborators
	m := &topo.Main{Data: newData(2)}
	_, err := m.Run(tests.NewQuadForest(2, 2, 1, 1, 2))
	require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)

	// invalid options
	d := newData(2)
	d.Options = map[string]interface{}{"tr_eta": 2.0}
	require.ErrorIs(tst, run(d, new(tests.Engine)), errs.ErrBoundViolation)

	// invalid load
	d = newData(2)
	d.Loads[0].Values = []float64{1, 2}
	require.ErrorIs(tst, run(d, new(tests.Engine)), errs.ErrDimensionMismatch)
	d.Loads[0].Kind = "pressure"
	require.ErrorIs(tst, run(d, new(tests.Engine)), errs.ErrInvalidConfiguration)

	// optimizer failure
	e := new(tests.Engine)
	e.Fail = chk.Err("diverged")
	err = run(newData(2), e)
	require.ErrorIs(tst, err, errs.ErrSolverFailure)
	require.ErrorIs(tst, err, e.Fail)
}

func Test_problem04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("problem04")

	// 4×4, 2×2 and 1×1 quadrilaterals over two processes
	prms := newParams(tst, newData(3))
	problems := make([]*topo.Problem, 2)
	fines := make([][]float64, 2)
	errors := tests.Run(2, func(comm par.Comm) error {
		qf := tests.NewQuadForest(4, 4, 1, 1, 2)
		qf.Rank, qf.Nprocs = comm.Rank(), 2
		p, err := topo.CreateProblem(comm, qf, tests.Creator(1, 0.9), prms)
		if err != nil {
			return err
		}
		problems[comm.Rank()] = p

		// constant field on the middle level
		coarse := p.Levels[1].Assembler.NewVec()
		for i := range coarse {
			coarse[i] = 3
		}
		fines[comm.Rank()] = p.Levels[0].Assembler.NewVec()
		return p.Mg.Interpolate(0, coarse, fines[comm.Rank()])
	})
	for _, err := range errors {
		require.NoError(tst, err)
	}

	// each process owns a part of every level
	for r, p := range problems {
		chk.Int(tst, io.Sf("nlevels of proc %d", r), p.Nlevels(), 3)
		nnodes := make([]int, p.Nlevels())
		for i, l := range p.Levels {
			nnodes[i] = l.Assembler.NumNodes()
		}
		chk.Ints(tst, io.Sf("nnodes of proc %d", r), nnodes, [][]int{{12, 4, 2}, {13, 5, 2}}[r])
	}
	chk.Int(tst, "design dim", problems[0].Filter.Dim()+problems[1].Filter.Dim(), 25)
	for _, v := range append(append([]float64{}, fines[0]...), fines[1]...) {
		chk.Float64(tst, "fine", 1e-15, v, 3)
	}
}

func Test_main04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("main04")

	// invalid input is found before any forest operation
	ncalls := 0
	creator := func(f mesh.Forest) (*mesh.Discretization, error) {
		ncalls++
		return tests.Creator(1, 0.9)(f)
	}
	run := func(d *inp.TopoData) (*tests.QuadForest, error) {
		qf := tests.NewQuadForest(2, 2, 1, 1, 2)
		m := &topo.Main{Data: d, Creator: creator, Engine: new(tests.Engine), NewNlp: tests.NlpFactory(0.5, nil)}
		_, err := m.Run(qf)
		return qf, err
	}

	d := newData(2)
	d.Freq = &inp.FreqData{OmegaMin: 1.0, Options: map[string]interface{}{"num_eig": 4}}
	qf, err := run(d)
	require.ErrorIs(tst, err, errs.ErrUnknownOption)
	require.Empty(tst, qf.Log)

	d.Freq = &inp.FreqData{OmegaMin: 0}
	qf, err = run(d)
	require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)
	require.Empty(tst, qf.Log)

	d = newData(2)
	d.Loads = append(d.Loads, &inp.LoadData{Kind: "pressure", Name: "top", Values: []float64{1}})
	qf, err = run(d)
	require.ErrorIs(tst, err, errs.ErrInvalidConfiguration)
	require.Empty(tst, qf.Log)

	d.Loads[1] = &inp.LoadData{Kind: "traction3d", Name: "top", Values: []float64{1, 2}}
	qf, err = run(d)
	require.ErrorIs(tst, err, errs.ErrDimensionMismatch)
	require.Empty(tst, qf.Log)
	chk.Int(tst, "discretizations", ncalls, 0)

	// input data is not changed
	d = newData(2)
	d.Options = map[string]interface{}{"maxiter": 30}
	_, err = run(d)
	require.NoError(tst, err)
	require.Nil(tst, d.Opts)
	require.Equal(tst, map[string]interface{}{"maxiter": 30}, d.Options)
}

func Test_main05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("main05")

	// optimize, refine and optimize again over two processes
	results := make([]*topo.Result, 2)
	errors := tests.Run(2, func(comm par.Comm) error {
		d := newData(2)
		d.Refine.Ncycles = 1
		qf := tests.NewQuadForest(2, 2, 1, 1, 2)
		qf.Rank, qf.Nprocs = comm.Rank(), 2
		m := &topo.Main{Comm: comm, Data: d, Creator: tests.Creator(1, 0.9), Engine: new(tests.Engine), NewNlp: tests.NlpFactory(0.5, nil)}
		res, err := m.Run(qf)
		results[comm.Rank()] = res
		return err
	})
	for _, err := range errors {
		require.NoError(tst, err)
	}

	// the transferred design covers the refined mesh
	ndesign := 0
	for _, res := range results {
		chk.Int(tst, "cycles", res.Cycles, 2)
		ndesign += len(res.Design.X)
		for i := range res.Design.X {
			chk.Float64(tst, "x", 1e-5, res.Design.X[i], 0.5)
		}
	}
	chk.Int(tst, "design length", ndesign, 25)
}
