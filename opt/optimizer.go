// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package opt drives an external NLP engine with trust region or interior-point methods
package opt

import (
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/inp"
)

// State is the state of an Optimizer
type State int

const (
	Unconfigured State = iota // options not applied yet
	Configured                // solvers created and configured
	Running                   // Optimize is running
	Converged                 // last run succeeded
	Failed                    // last run failed
)

func (o State) String() string {
	switch o {
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Failed:
		return "failed"
	}
	return "unconfigured"
}

// Optimizer configures and runs an optimization algorithm on a problem
type Optimizer struct {
	Data     *inp.OptData // options
	strategy Strategy     // algorithm
	state    State        // current state
}

// New returns a configured optimizer. All invalid overrides are reported together and no
// optimizer is returned in that case.
func New(engine Engine, prob Problem, overrides map[string]interface{}) (o *Optimizer, err error) {
	data, err := inp.ParseOpts(overrides)
	if err != nil {
		return nil, err
	}
	return NewWithData(engine, prob, data)
}

// NewWithData returns an optimizer configured with validated options
func NewWithData(engine Engine, prob Problem, data *inp.OptData) (o *Optimizer, err error) {
	if engine == nil || data == nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "optimizer needs an engine and options")
	}
	o = &Optimizer{Data: data, state: Unconfigured}
	o.strategy, err = newStrategy(data.Strategy)
	if err != nil {
		return nil, err
	}
	err = o.strategy.configure(engine, prob, data)
	if err != nil {
		return nil, err
	}
	o.state = Configured
	return
}

// State returns the current state
func (o *Optimizer) State() State { return o.state }

// Strategy returns the algorithm
func (o *Optimizer) Strategy() Strategy { return o.strategy }

// Optimize runs the algorithm and returns the optimized design variables. Calling Optimize
// again runs the solver again, starting from its own internal state.
func (o *Optimizer) Optimize() (x Vector, err error) {
	if o.state == Unconfigured || o.state == Running {
		return nil, errs.New(errs.ErrInvalidConfiguration, "cannot optimize in state %v", o.state)
	}
	o.state = Running
	err = o.strategy.run()
	if err != nil {
		o.state = Failed
		return nil, errs.Solver(err, "%s optimization failed", o.strategy.Name())
	}
	pt, err := o.strategy.solution()
	if err != nil {
		o.state = Failed
		return nil, errs.Solver(err, "cannot get optimized point")
	}
	o.state = Converged
	return pt.X, nil
}
