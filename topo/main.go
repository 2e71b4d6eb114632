// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/filter"
	"github.com/peekwez/tmr/inp"
	"github.com/peekwez/tmr/load"
	"github.com/peekwez/tmr/mesh"
	"github.com/peekwez/tmr/opt"
	"github.com/peekwez/tmr/par"
	"github.com/peekwez/tmr/refine"
)

// NlpFactory creates the optimization problem for a hierarchy, the assembled loads and the
// initial design
type NlpFactory func(p *Problem, loads []float64, x0 *filter.Vec) (opt.Problem, error)

// Main runs the adaptive topology optimization: optimize, refine the mesh where the design
// requires it, transfer the design and optimize again
type Main struct {
	Comm    par.Comm      // partition context
	Data    *inp.TopoData // input data
	Creator Creator       // discretization callback
	Engine  opt.Engine    // NLP engine
	NewNlp  NlpFactory    // optimization problem factory
	Verbose bool          // show messages
}

// Result holds the results of Run
type Result struct {
	Problem   *Problem    // hierarchy of the last cycle
	Design    *filter.Vec // optimized design on the finest level of the last cycle
	Cycles    int         // number of optimizations
	Decisions [][]int     // refinement decisions of each refinement
}

// Run runs all cycles starting from forest. The input data is checked before any forest
// operation and is not changed.
//  Note: Run is collective; all processes must call it together
func (o *Main) Run(forest mesh.Forest) (res *Result, err error) {

	// check
	if o.Data == nil || o.Creator == nil || o.Engine == nil || o.NewNlp == nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "main needs input data, a discretization callback, an engine and a problem factory")
	}
	if o.Comm == nil {
		o.Comm = par.Serial()
	}
	opts := o.Data.Opts
	if opts == nil {
		if opts, err = inp.ParseOpts(o.Data.Options); err != nil {
			return
		}
	}
	if err = o.checkInput(); err != nil {
		return
	}
	prms, err := NewParams(o.Data, o.Verbose)
	if err != nil {
		return
	}
	rprms := &refine.Params{
		Index:    o.Data.Refine.Index,
		Lower:    o.Data.Refine.Lower,
		Upper:    o.Data.Refine.Upper,
		Reverse:  o.Data.Refine.Reverse,
		MinLevel: o.Data.Refine.MinLev,
		MaxLevel: o.Data.Refine.MaxLev,
	}
	if err = rprms.Validate(); err != nil {
		return
	}
	verbose := par.ShowMsg(o.Comm, o.Verbose)

	// hierarchy
	res = new(Result)
	res.Problem, err = CreateProblem(o.Comm, forest, o.Creator, prms)
	if err != nil {
		return nil, err
	}
	x0 := res.Problem.NewDesignVec()

	// cycles
	ncycles := o.Data.Refine.Ncycles
	for cycle := 0; cycle <= ncycles; cycle++ {
		if verbose {
			io.PfGreen("\ncycle %d: %d design variables\n", cycle, res.Problem.Filter.Dim())
		}

		// optimize
		res.Design, err = o.optimize(res.Problem, x0, opts)
		if err != nil {
			return nil, err
		}
		res.Cycles++
		if cycle == ncycles {
			break
		}

		// refine a copy; the old design mesh must survive until the design is transferred
		o.Comm.Barrier()
		finest := *res.Problem.Finest()
		finest.Forest, err = finest.Forest.Duplicate()
		if err != nil {
			return nil, errs.Solver(err, "cannot duplicate forest for refinement")
		}
		decisions, err := refine.DensityBased(&finest, rprms)
		if err != nil {
			return nil, err
		}
		res.Decisions = append(res.Decisions, decisions)
		if verbose {
			nr, nc, nk := refine.Stats(decisions)
			io.Pf("refine: %d elements refined, %d coarsened, %d kept\n", nr, nc, nk)
		}

		// new hierarchy and design
		old := res.Problem
		res.Problem, err = CreateProblem(o.Comm, finest.Forest, o.Creator, prms)
		if err != nil {
			return nil, err
		}
		x0 = res.Problem.NewDesignVec()
		err = filter.Transfer(old.Filter, res.Design, res.Problem.Filter, x0)
		if err != nil {
			return nil, err
		}
	}
	return
}

// checkInput checks the loads and the frequency constraint parameters
func (o *Main) checkInput() (err error) {
	for _, l := range o.Data.Loads {
		switch l.Kind {
		case "vertex":
		case "traction3d":
			if len(l.Values) != 3 {
				return errs.New(errs.ErrDimensionMismatch, "traction load %q needs 3 values; got %d", l.Name, len(l.Values))
			}
		default:
			return errs.New(errs.ErrInvalidConfiguration, "load kind %q is not available", l.Kind)
		}
	}
	if f := o.Data.Freq; f != nil {
		if f.OmegaMin <= 0 {
			return errs.New(errs.ErrInvalidConfiguration, "min natural frequency must be positive; got %g", f.OmegaMin)
		}
		return NewFreqRegistry(f.OmegaMin).WriteAll(f.Options)
	}
	return
}

// optimize assembles the loads, creates the optimization problem and runs the optimizer
func (o *Main) optimize(p *Problem, x0 *filter.Vec, opts *inp.OptData) (x *filter.Vec, err error) {

	// loads
	loads, err := o.assembleLoads(p)
	if err != nil {
		return
	}

	// problem
	nlp, err := o.NewNlp(p, loads, x0)
	if err != nil {
		return nil, errs.Solver(err, "cannot create optimization problem")
	}
	if o.Data.Freq != nil {
		fc, ok := nlp.(FreqConstrainer)
		if !ok {
			return nil, errs.New(errs.ErrInvalidConfiguration, "optimization problem %T does not accept frequency constraints", nlp)
		}
		if _, err = AddFrequencyConstraint(fc, o.Data.Freq.OmegaMin, o.Data.Freq.Options); err != nil {
			return
		}
	}

	// run
	optimizer, err := opt.NewWithData(o.Engine, nlp, opts)
	if err != nil {
		return
	}
	xopt, err := optimizer.Optimize()
	if err != nil {
		return
	}
	return designOf(p.Filter, xopt)
}

// assembleLoads returns the sum of all loads applied on the finest level
func (o *Main) assembleLoads(p *Problem) (f []float64, err error) {
	finest := p.Finest()
	f = finest.Assembler.NewVec()
	for _, l := range o.Data.Loads {
		var v []float64
		switch l.Kind {
		case "vertex":
			v, err = load.Vertex(o.Comm, finest, l.Name, l.Values)
		case "traction3d":
			if len(l.Values) != 3 {
				return nil, errs.New(errs.ErrDimensionMismatch, "traction load %q needs 3 values; got %d", l.Name, len(l.Values))
			}
			v, err = load.ConstantTraction3D(finest, l.Name, [3]float64{l.Values[0], l.Values[1], l.Values[2]})
		default:
			return nil, errs.New(errs.ErrInvalidConfiguration, "load kind %q is not available", l.Kind)
		}
		if err != nil {
			return
		}
		if err = load.Sum(f, v); err != nil {
			return
		}
	}
	return
}

// designOf converts the optimized point returned by the engine into a design vector of space
func designOf(space *filter.Space, x opt.Vector) (*filter.Vec, error) {
	switch v := x.(type) {
	case *filter.Vec:
		if v != nil && v.Space() == space {
			return v, nil
		}
	case []float64:
		if len(v) == space.Dim() {
			d := space.NewVec()
			copy(d.X, v)
			return d, nil
		}
		return nil, errs.New(errs.ErrDimensionMismatch, "optimized design has %d entries; %d expected", len(v), space.Dim())
	}
	return nil, errs.New(errs.ErrInvalidVector, "optimized design %T is not a vector of the design space", x)
}
