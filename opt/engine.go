// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/peekwez/tmr/inp"
)

// Problem is the nonlinear programming problem (objective, constraints and their gradients)
type Problem interface{}

// Vector is a design vector created by the NLP engine
type Vector interface{}

// QuasiNewton is a limited-memory Hessian approximation
type QuasiNewton interface{}

// Point holds the optimized point: design variables and multipliers
type Point struct {
	X  Vector // design variables
	Z  Vector // multipliers of dense constraints
	Zw Vector // multipliers of sparse constraints
	Zl Vector // multipliers of lower bounds
	Zu Vector // multipliers of upper bounds
}

// TrustRegionParams holds the parameters to create a trust region method
type TrustRegionParams struct {
	InitSize     float64 // initial radius
	MinSize      float64 // min radius
	MaxSize      float64 // max radius
	Eta          float64 // acceptance ratio
	PenaltyGamma float64 // penalty parameter
}

// InteriorPoint is an interior-point optimizer
type InteriorPoint interface {

	// termination and gradient check
	SetAbsOptimalityTol(tol float64)
	SetMaxMajorIterations(maxiter int)
	CheckGradients(dh float64)

	// strategies
	SetNormType(t inp.NormType)
	SetBarrierStrategy(s inp.BarrierStrategy)
	SetStartingPointStrategy(s inp.StartStrategy)
	SetBFGSUpdateType(u inp.BfgsUpdate)

	// barrier and penalty
	SetPenaltyGamma(gamma float64)
	SetBarrierFraction(frac float64)
	SetBarrierPower(power float64)
	SetHessianResetFrequency(freq int)
	SetQNDiagonalFactor(factor float64)
	SetSequentialLinearMethod(flag bool)
	SetStartAffineStepMultiplierMin(val float64)
	SetInitBarrierParameter(mu float64)
	SetRelativeBarrier(val float64)
	SetUseQuasiNewtonUpdates(flag bool)

	// line search
	SetUseLineSearch(flag bool)
	SetMaxLineSearchIters(iters int)
	SetBacktrackingLineSearch(flag bool)
	SetArmijoParam(val float64)
	SetPenaltyDescentFraction(frac float64)
	SetMinPenaltyParameter(val float64)

	// GMRES
	SetUseHvecProduct(flag bool)
	SetUseDiagHessian(flag bool)
	SetUseQNGMRESPreCon(flag bool)
	SetNKSwitchTolerance(tol float64)
	SetEisenstatWalkerParameters(gamma, alpha float64)
	SetGMRESTolerances(rtol, atol float64)
	SetGMRESSubspaceSize(size int)

	// output
	SetOutputFrequency(freq int)
	SetOutputFile(fname string)
	SetMajorIterStepCheck(step int)
	SetOutputLevel(level int)
	SetGradCheckFrequency(freq int, step float64)

	// run
	Optimize() error
	OptimizedPoint() (*Point, error)
}

// TrustRegion is a trust region method whose sub-problems are solved by an interior-point
// optimizer
type TrustRegion interface {
	SetPenaltyGammaMax(gamma float64)
	SetMaxTrustRegionIterations(iters int)
	SetTrustRegionTolerances(infeas, l1, linfty float64)
	SetAdaptiveGammaUpdate(flag bool)
	SetOutputFile(fname string)
	SetOutputFrequency(freq int)
	Optimize(ip InteriorPoint) error
}

// Engine creates the objects of an NLP library
type Engine interface {
	NewLBFGS(prob Problem, subspace int) (QuasiNewton, error)
	NewLSR1(prob Problem, subspace int) (QuasiNewton, error)
	NewTrustRegion(prob Problem, qn QuasiNewton, prms TrustRegionParams) (TrustRegion, error)
	NewInteriorPoint(prob Problem, subspace int, qn inp.QnType) (InteriorPoint, error)
	NewInteriorPointTR(tr TrustRegion) (InteriorPoint, error) // solves trust region sub-problems
}
