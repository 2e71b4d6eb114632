// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tests

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/filter"
	"github.com/peekwez/tmr/inp"
	"github.com/peekwez/tmr/opt"
	"github.com/peekwez/tmr/topo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Nlp is a design problem with objective Σ (xᵢ - Target)²
type Nlp struct {
	X0     *filter.Vec      // initial design
	Target float64          // optimal value of every design variable
	Loads  []float64        // load vector used to build the problem
	Freq   *topo.FreqParams // frequency constraint, if added
}

// AddFrequencyConstraint records the constraint parameters
func (o *Nlp) AddFrequencyConstraint(p *topo.FreqParams) error {
	o.Freq = p
	return nil
}

// NlpFactory returns a factory of Nlp problems; the created problems are appended to *created
// if created is not nil
func NlpFactory(target float64, created *[]*Nlp) topo.NlpFactory {
	return func(p *topo.Problem, loads []float64, x0 *filter.Vec) (opt.Problem, error) {
		nlp := &Nlp{X0: x0, Target: target, Loads: loads}
		if created != nil {
			*created = append(*created, nlp)
		}
		return nlp, nil
	}
}

// Engine creates solvers for Nlp problems; the interior-point solvers minimize the objective
// with L-BFGS
type Engine struct {
	Log      []string              // created objects; e.g. "lbfgs 10"
	TrParams opt.TrustRegionParams // parameters of the last trust region method
	Ips      []*InteriorPoint      // created interior-point solvers
	Trs      []*TrustRegion        // created trust region methods
	Fail     error                 // if set, optimizations fail with this error
}

func (o *Engine) NewLBFGS(prob opt.Problem, subspace int) (opt.QuasiNewton, error) {
	o.Log = append(o.Log, io.Sf("lbfgs %d", subspace))
	return subspace, nil
}

func (o *Engine) NewLSR1(prob opt.Problem, subspace int) (opt.QuasiNewton, error) {
	o.Log = append(o.Log, io.Sf("lsr1 %d", subspace))
	return subspace, nil
}

func (o *Engine) NewTrustRegion(prob opt.Problem, qn opt.QuasiNewton, prms opt.TrustRegionParams) (opt.TrustRegion, error) {
	o.Log = append(o.Log, "trust region")
	o.TrParams = prms
	tr := &TrustRegion{engine: o, prob: prob, Values: make(map[string]interface{})}
	o.Trs = append(o.Trs, tr)
	return tr, nil
}

func (o *Engine) NewInteriorPoint(prob opt.Problem, subspace int, qn inp.QnType) (opt.InteriorPoint, error) {
	o.Log = append(o.Log, io.Sf("interior point %d %v", subspace, qn))
	return o.newIp(prob), nil
}

func (o *Engine) NewInteriorPointTR(tr opt.TrustRegion) (opt.InteriorPoint, error) {
	o.Log = append(o.Log, "interior point tr")
	t, ok := tr.(*TrustRegion)
	if !ok {
		return nil, chk.Err("cannot create sub-problem solver for %T", tr)
	}
	return o.newIp(t.prob), nil
}

func (o *Engine) newIp(prob opt.Problem) *InteriorPoint {
	ip := &InteriorPoint{engine: o, prob: prob, Values: make(map[string]interface{})}
	o.Ips = append(o.Ips, ip)
	return ip
}

// TrustRegion records its settings and runs the sub-problem solver
type TrustRegion struct {
	Calls  []string               // setters in call order
	Values map[string]interface{} // last value given to each setter
	Runs   int                    // number of calls to Optimize

	engine *Engine
	prob   opt.Problem
}

func (o *TrustRegion) set(name string, val interface{}) {
	o.Calls = append(o.Calls, name)
	o.Values[name] = val
}

func (o *TrustRegion) SetPenaltyGammaMax(gamma float64)      { o.set("SetPenaltyGammaMax", gamma) }
func (o *TrustRegion) SetMaxTrustRegionIterations(iters int) { o.set("SetMaxTrustRegionIterations", iters) }
func (o *TrustRegion) SetAdaptiveGammaUpdate(flag bool)      { o.set("SetAdaptiveGammaUpdate", flag) }
func (o *TrustRegion) SetOutputFile(fname string)            { o.set("SetOutputFile", fname) }
func (o *TrustRegion) SetOutputFrequency(freq int)           { o.set("SetOutputFrequency", freq) }

func (o *TrustRegion) SetTrustRegionTolerances(infeas, l1, linfty float64) {
	o.set("SetTrustRegionTolerances", []float64{infeas, l1, linfty})
}

func (o *TrustRegion) Optimize(ip opt.InteriorPoint) error {
	o.Runs++
	p, ok := ip.(*InteriorPoint)
	if !ok {
		return chk.Err("cannot run sub-problem solver %T", ip)
	}
	maxiter, _ := o.Values["SetMaxTrustRegionIterations"].(int)
	return p.solve(maxiter)
}

// InteriorPoint records its settings and minimizes Nlp problems with L-BFGS
type InteriorPoint struct {
	Calls  []string               // setters in call order
	Values map[string]interface{} // last value given to each setter
	Runs   int                    // number of runs

	engine *Engine
	prob   opt.Problem
	point  *opt.Point
}

func (o *InteriorPoint) set(name string, val interface{}) {
	o.Calls = append(o.Calls, name)
	o.Values[name] = val
}

// Count returns how many times a setter was called
func (o *InteriorPoint) Count(name string) (n int) {
	for _, c := range o.Calls {
		if c == name {
			n++
		}
	}
	return
}

func (o *InteriorPoint) SetAbsOptimalityTol(tol float64)              { o.set("SetAbsOptimalityTol", tol) }
func (o *InteriorPoint) SetMaxMajorIterations(maxiter int)            { o.set("SetMaxMajorIterations", maxiter) }
func (o *InteriorPoint) CheckGradients(dh float64)                    { o.set("CheckGradients", dh) }
func (o *InteriorPoint) SetNormType(t inp.NormType)                   { o.set("SetNormType", t) }
func (o *InteriorPoint) SetBarrierStrategy(s inp.BarrierStrategy)     { o.set("SetBarrierStrategy", s) }
func (o *InteriorPoint) SetStartingPointStrategy(s inp.StartStrategy) { o.set("SetStartingPointStrategy", s) }
func (o *InteriorPoint) SetBFGSUpdateType(u inp.BfgsUpdate)           { o.set("SetBFGSUpdateType", u) }
func (o *InteriorPoint) SetPenaltyGamma(gamma float64)                { o.set("SetPenaltyGamma", gamma) }
func (o *InteriorPoint) SetBarrierFraction(frac float64)              { o.set("SetBarrierFraction", frac) }
func (o *InteriorPoint) SetBarrierPower(power float64)                { o.set("SetBarrierPower", power) }
func (o *InteriorPoint) SetHessianResetFrequency(freq int)            { o.set("SetHessianResetFrequency", freq) }
func (o *InteriorPoint) SetQNDiagonalFactor(factor float64)           { o.set("SetQNDiagonalFactor", factor) }
func (o *InteriorPoint) SetSequentialLinearMethod(flag bool)          { o.set("SetSequentialLinearMethod", flag) }
func (o *InteriorPoint) SetInitBarrierParameter(mu float64)           { o.set("SetInitBarrierParameter", mu) }
func (o *InteriorPoint) SetRelativeBarrier(val float64)               { o.set("SetRelativeBarrier", val) }
func (o *InteriorPoint) SetUseQuasiNewtonUpdates(flag bool)           { o.set("SetUseQuasiNewtonUpdates", flag) }
func (o *InteriorPoint) SetUseLineSearch(flag bool)                   { o.set("SetUseLineSearch", flag) }
func (o *InteriorPoint) SetMaxLineSearchIters(iters int)              { o.set("SetMaxLineSearchIters", iters) }
func (o *InteriorPoint) SetBacktrackingLineSearch(flag bool)          { o.set("SetBacktrackingLineSearch", flag) }
func (o *InteriorPoint) SetArmijoParam(val float64)                   { o.set("SetArmijoParam", val) }
func (o *InteriorPoint) SetPenaltyDescentFraction(frac float64)       { o.set("SetPenaltyDescentFraction", frac) }
func (o *InteriorPoint) SetMinPenaltyParameter(val float64)           { o.set("SetMinPenaltyParameter", val) }
func (o *InteriorPoint) SetUseHvecProduct(flag bool)                  { o.set("SetUseHvecProduct", flag) }
func (o *InteriorPoint) SetUseDiagHessian(flag bool)                  { o.set("SetUseDiagHessian", flag) }
func (o *InteriorPoint) SetUseQNGMRESPreCon(flag bool)                { o.set("SetUseQNGMRESPreCon", flag) }
func (o *InteriorPoint) SetNKSwitchTolerance(tol float64)             { o.set("SetNKSwitchTolerance", tol) }
func (o *InteriorPoint) SetGMRESSubspaceSize(size int)                { o.set("SetGMRESSubspaceSize", size) }
func (o *InteriorPoint) SetOutputFrequency(freq int)                  { o.set("SetOutputFrequency", freq) }
func (o *InteriorPoint) SetOutputFile(fname string)                   { o.set("SetOutputFile", fname) }
func (o *InteriorPoint) SetMajorIterStepCheck(step int)               { o.set("SetMajorIterStepCheck", step) }
func (o *InteriorPoint) SetOutputLevel(level int)                     { o.set("SetOutputLevel", level) }

func (o *InteriorPoint) SetStartAffineStepMultiplierMin(val float64) {
	o.set("SetStartAffineStepMultiplierMin", val)
}

func (o *InteriorPoint) SetEisenstatWalkerParameters(gamma, alpha float64) {
	o.set("SetEisenstatWalkerParameters", []float64{gamma, alpha})
}

func (o *InteriorPoint) SetGMRESTolerances(rtol, atol float64) {
	o.set("SetGMRESTolerances", []float64{rtol, atol})
}

func (o *InteriorPoint) SetGradCheckFrequency(freq int, step float64) {
	o.set("SetGradCheckFrequency", []float64{float64(freq), step})
}

func (o *InteriorPoint) Optimize() error {
	maxiter, _ := o.Values["SetMaxMajorIterations"].(int)
	return o.solve(maxiter)
}

func (o *InteriorPoint) OptimizedPoint() (*opt.Point, error) {
	if o.point == nil {
		return nil, chk.Err("optimizer has not run yet")
	}
	return o.point, nil
}

// solve minimizes the Nlp objective starting from the last solution or the initial design
func (o *InteriorPoint) solve(maxiter int) (err error) {
	o.Runs++
	if o.engine.Fail != nil {
		return o.engine.Fail
	}
	nlp, ok := o.prob.(*Nlp)
	if !ok {
		return chk.Err("cannot solve %T", o.prob)
	}

	// starting point
	x0 := append([]float64{}, nlp.X0.X...)
	if o.point != nil {
		x0 = append([]float64{}, o.point.X.(*filter.Vec).X...)
	}
	x := nlp.X0.Space().NewVec()
	if len(x0) == 0 {
		o.point = &opt.Point{X: x}
		return
	}

	// minimize
	problem := optimize.Problem{
		Func: func(x []float64) (f float64) {
			for _, v := range x {
				f += (v - nlp.Target) * (v - nlp.Target)
			}
			return
		},
		Grad: func(grad, x []float64) {
			for i, v := range x {
				grad[i] = 2 * (v - nlp.Target)
			}
		},
	}
	settings := &optimize.Settings{GradientThreshold: 1e-10}
	if tol, ok := o.Values["SetAbsOptimalityTol"].(float64); ok && tol > 0 {
		settings.GradientThreshold = tol
	}
	if maxiter > 0 {
		settings.MajorIterations = maxiter
	}
	grad := make([]float64, len(x0))
	problem.Grad(grad, x0)
	if floats.Norm(grad, math.Inf(1)) <= settings.GradientThreshold {
		copy(x.X, x0)
		o.point = &opt.Point{X: x}
		return
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if err != nil {
		return
	}
	copy(x.X, result.X)
	o.point = &opt.Point{X: x}
	return
}
