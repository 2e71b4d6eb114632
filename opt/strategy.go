// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/cpmech/gosl/utl"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/inp"
)

// Strategy is the optimization algorithm selected by the "optimizer" option
type Strategy interface {
	Name() string                                        // name of algorithm
	configure(e Engine, p Problem, d *inp.OptData) error // create and configure solvers
	run() error                                          // run solver
	solution() (*Point, error)                           // optimized point
}

// newStrategy returns the strategy for the given algorithm
func newStrategy(s inp.Strategy) (Strategy, error) {
	switch s {
	case inp.TrustRegion:
		return new(trustRegion), nil
	case inp.InteriorPoint:
		return new(interiorPoint), nil
	}
	return nil, errs.New(errs.ErrInvalidConfiguration, "optimization strategy %d is not available", s)
}

// trustRegion solves a sequence of convex trust region sub-problems
type trustRegion struct {
	tr TrustRegion
	ip InteriorPoint
}

func (o *trustRegion) Name() string { return inp.TrustRegion.String() }

func (o *trustRegion) configure(e Engine, p Problem, d *inp.OptData) (err error) {
	if d.TrMinSize > d.TrMaxSize {
		return errs.New(errs.ErrInvalidConfiguration, "min trust region size (tr_min_size = %g) exceeds max size (tr_max_size = %g)", d.TrMinSize, d.TrMaxSize)
	}

	// quasi-Newton: the sub-problems need a Hessian approximation
	subspace := utl.Imax(d.MaxQnSubspace, 1)
	var qn QuasiNewton
	if d.QnType == inp.SR1 {
		qn, err = e.NewLSR1(p, subspace)
	} else {
		qn, err = e.NewLBFGS(p, subspace)
	}
	if err != nil {
		return errs.Solver(err, "cannot create quasi-Newton approximation")
	}

	// trust region
	prms := TrustRegionParams{
		InitSize:     utl.Min(d.TrMaxSize, utl.Max(d.TrInitSize, d.TrMinSize)),
		MinSize:      d.TrMinSize,
		MaxSize:      d.TrMaxSize,
		Eta:          d.TrEta,
		PenaltyGamma: d.TrPenaltyGamma,
	}
	o.tr, err = e.NewTrustRegion(p, qn, prms)
	if err != nil {
		return errs.Solver(err, "cannot create trust region method")
	}
	o.tr.SetPenaltyGammaMax(d.TrPenaltyGammaMax)
	o.tr.SetMaxTrustRegionIterations(d.MaxIter)
	o.tr.SetTrustRegionTolerances(d.TrInfeasTol, d.TrL1Tol, d.TrLinftyTol)
	o.tr.SetAdaptiveGammaUpdate(d.TrAdaptiveGammaUpdate)
	if d.TrOutputFile != nil {
		o.tr.SetOutputFile(*d.TrOutputFile)
		o.tr.SetOutputFrequency(d.TrWriteOutputFreq)
	}

	// sub-problem solver
	o.ip, err = e.NewInteriorPointTR(o.tr)
	if err != nil {
		return errs.Solver(err, "cannot create interior-point solver for trust region sub-problems")
	}
	setKnobs(o.ip, d)
	return
}

func (o *trustRegion) run() error { return o.tr.Optimize(o.ip) }

func (o *trustRegion) solution() (*Point, error) { return o.ip.OptimizedPoint() }

// interiorPoint solves the problem directly with the interior-point method
type interiorPoint struct {
	ip InteriorPoint
}

func (o *interiorPoint) Name() string { return inp.InteriorPoint.String() }

func (o *interiorPoint) configure(e Engine, p Problem, d *inp.OptData) (err error) {
	o.ip, err = e.NewInteriorPoint(p, d.MaxQnSubspace, d.QnType)
	if err != nil {
		return errs.Solver(err, "cannot create interior-point optimizer")
	}
	o.ip.SetMaxMajorIterations(d.MaxIter)
	setKnobs(o.ip, d)
	return
}

func (o *interiorPoint) run() error { return o.ip.Optimize() }

func (o *interiorPoint) solution() (*Point, error) { return o.ip.OptimizedPoint() }

// setKnobs sets the tolerance and then every optional parameter that was given
func setKnobs(ip InteriorPoint, d *inp.OptData) {
	ip.SetAbsOptimalityTol(d.Tol)
	if d.Dh != nil {
		ip.CheckGradients(*d.Dh)
	}
	if d.NormType != nil {
		ip.SetNormType(*d.NormType)
	}
	if d.BarrierStrategy != nil {
		ip.SetBarrierStrategy(*d.BarrierStrategy)
	}
	if d.StartStrategy != nil {
		ip.SetStartingPointStrategy(*d.StartStrategy)
	}
	if d.BfgsUpdateType != nil {
		ip.SetBFGSUpdateType(*d.BfgsUpdateType)
	}
	if d.PenaltyGamma != nil {
		ip.SetPenaltyGamma(*d.PenaltyGamma)
	}
	if d.BarrierFraction != nil {
		ip.SetBarrierFraction(*d.BarrierFraction)
	}
	if d.BarrierPower != nil {
		ip.SetBarrierPower(*d.BarrierPower)
	}
	if d.HessianResetFreq != nil {
		ip.SetHessianResetFrequency(*d.HessianResetFreq)
	}
	if d.QnDiagFactor != nil {
		ip.SetQNDiagonalFactor(*d.QnDiagFactor)
	}
	if d.UseSequentialLinear != nil {
		ip.SetSequentialLinearMethod(*d.UseSequentialLinear)
	}
	if d.AffineStepMultiplierMin != nil {
		ip.SetStartAffineStepMultiplierMin(*d.AffineStepMultiplierMin)
	}
	if d.InitBarrierParameter != nil {
		ip.SetInitBarrierParameter(*d.InitBarrierParameter)
	}
	if d.RelativeBarrier != nil {
		ip.SetRelativeBarrier(*d.RelativeBarrier)
	}
	if d.QnUpdates != nil {
		ip.SetUseQuasiNewtonUpdates(*d.QnUpdates)
	}

	// line search
	if d.UseLineSearch != nil {
		ip.SetUseLineSearch(*d.UseLineSearch)
	}
	if d.MaxLsIters != nil {
		ip.SetMaxLineSearchIters(*d.MaxLsIters)
	}
	if d.BacktrackLs != nil {
		ip.SetBacktrackingLineSearch(*d.BacktrackLs)
	}
	if d.ArmijoParam != nil {
		ip.SetArmijoParam(*d.ArmijoParam)
	}
	if d.PenaltyDescentFrac != nil {
		ip.SetPenaltyDescentFraction(*d.PenaltyDescentFrac)
	}
	if d.MinPenaltyParam != nil {
		ip.SetMinPenaltyParameter(*d.MinPenaltyParam)
	}

	// GMRES
	if d.UseHvecProd != nil {
		ip.SetUseHvecProduct(*d.UseHvecProd)
	}
	if d.UseDiagHessian != nil {
		ip.SetUseDiagHessian(*d.UseDiagHessian)
	}
	if d.UseQnGmresPrecon != nil {
		ip.SetUseQNGMRESPreCon(*d.UseQnGmresPrecon)
	}
	if d.NkSwitchTol != nil {
		ip.SetNKSwitchTolerance(*d.NkSwitchTol)
	}
	if d.EisenstatWalker != nil {
		ip.SetEisenstatWalkerParameters(d.EisenstatWalker[0], d.EisenstatWalker[1])
	}
	if d.GmresTol != nil {
		ip.SetGMRESTolerances(d.GmresTol[0], d.GmresTol[1])
	}
	if d.GmresSubspaceSize != nil {
		ip.SetGMRESSubspaceSize(*d.GmresSubspaceSize)
	}

	// output
	if d.OutputFreq != nil {
		ip.SetOutputFrequency(*d.OutputFreq)
	}
	if d.OutputFile != nil {
		ip.SetOutputFile(*d.OutputFile)
	}
	if d.MajorIterStepCheck != nil {
		ip.SetMajorIterStepCheck(*d.MajorIterStepCheck)
	}
	if d.OutputLevel != nil {
		ip.SetOutputLevel(*d.OutputLevel)
	}
	if d.GradCheckFreq != nil {
		ip.SetGradCheckFrequency(d.GradCheckFreq.Freq, d.GradCheckFreq.Step)
	}
}
