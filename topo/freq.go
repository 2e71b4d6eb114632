// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topo

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/inp"
)

// Recycle is the eigenvector recycling strategy
type Recycle int

const (
	RecycleNum    Recycle = iota // recycle a fixed number of eigenvectors
	RecycleSumTwo                // recycle eigenvectors up to the sum of two
)

// FreqParams holds the parameters of a natural frequency constraint
//  Note: with Lanczos, MaxSize is the max number of Lanczos vectors and Tol the Lanczos
//        tolerance; the Jacobi-Davidson fields are zero
type FreqParams struct {
	Sigma           float64 // spectral shift
	NumEigs         int     // number of eigenvalues
	KsWeight        float64 // KS aggregation weight
	Offset          float64 // constraint offset: ω² - offset ≥ 0
	Scale           float64 // constraint scale
	MaxSize         int     // max Jacobi-Davidson subspace or max Lanczos vectors
	Tol             float64 // eigenvalue tolerance
	UseJD           bool    // Jacobi-Davidson instead of Lanczos
	FgmresSize      int     // FGMRES subspace size
	EigRtol         float64 // relative eigenvalue tolerance
	EigAtol         float64 // absolute eigenvalue tolerance
	NumRecycle      int     // number of recycled eigenvectors
	Recycle         Recycle // recycling strategy
	TrackEigenIters int     // track eigenvalue iterations
}

// FreqConstrainer is an optimization problem that accepts natural frequency constraints
type FreqConstrainer interface {
	AddFrequencyConstraint(p *FreqParams) error
}

// NewFreqRegistry returns the registry of natural frequency constraint parameters with the
// defaults corresponding to the min frequency omegaMin [Hz]
func NewFreqRegistry(omegaMin float64) (o *inp.Registry) {
	offset := -math.Pow(2.0*math.Pi*omegaMin, 2)
	o = inp.NewRegistry()
	decl := func(name string, value interface{}, kind inp.Kind, desc string) {
		if err := o.Declare(&inp.Entry{Name: name, Value: value, Kind: kind, Desc: desc}); err != nil {
			chk.Panic("cannot declare frequency option:\n%v", err)
		}
	}
	decl("use_jd", true, inp.KindBool, "Use Jacobi-Davidson instead of Lanczos")
	decl("num_eigs", 10, inp.KindInt, "Number of eigenvalues")
	decl("ks_weight", 50.0, inp.KindFloat, "KS aggregation weight")
	decl("offset", offset, inp.KindFloat, "Constraint offset")
	decl("sigma", -offset, inp.KindFloat, "Spectral shift")
	decl("scale", -0.75/offset, inp.KindFloat, "Constraint scale")
	decl("max_lanczos", 100, inp.KindInt, "Max number of Lanczos vectors")
	decl("tol", 1e-30, inp.KindFloat, "Lanczos tolerance")
	decl("eig_tol", 5e-7, inp.KindFloat, "Jacobi-Davidson eigenvalue tolerance")
	decl("eig_rtol", 1e-6, inp.KindFloat, "Relative eigenvalue tolerance")
	decl("eig_atol", 1e-12, inp.KindFloat, "Absolute eigenvalue tolerance")
	decl("num_recycle", 10, inp.KindInt, "Number of recycled eigenvectors")
	decl("fgmres_size", 8, inp.KindInt, "FGMRES subspace size")
	decl("max_jd_size", 50, inp.KindInt, "Max Jacobi-Davidson subspace size")
	decl("track_eigen_iters", 2, inp.KindInt, "Track eigenvalue iterations")
	if err := o.Declare(&inp.Entry{Name: "recycle_type", Value: "num_recycling", Kind: inp.KindString,
		Allowed: []interface{}{"num_recycling", "sum_two"}, Desc: "Eigenvector recycling strategy"}); err != nil {
		chk.Panic("cannot declare frequency option:\n%v", err)
	}
	return
}

// AddFrequencyConstraint adds the constraint ω ≥ omegaMin [Hz] to target. The defaults can be
// changed with overrides; unknown keys are errors.
func AddFrequencyConstraint(target FreqConstrainer, omegaMin float64, overrides map[string]interface{}) (p *FreqParams, err error) {

	// parameters
	if omegaMin <= 0 {
		return nil, errs.New(errs.ErrInvalidConfiguration, "min natural frequency must be positive; got %g", omegaMin)
	}
	reg := NewFreqRegistry(omegaMin)
	if err = reg.WriteAll(overrides); err != nil {
		return nil, err
	}
	r := inp.NewReader(reg)
	p = &FreqParams{
		Sigma:           r.Float("sigma"),
		NumEigs:         r.Int("num_eigs"),
		KsWeight:        r.Float("ks_weight"),
		Offset:          r.Float("offset"),
		Scale:           r.Float("scale"),
		UseJD:           r.Bool("use_jd"),
		TrackEigenIters: r.Int("track_eigen_iters"),
	}
	if p.UseJD {
		p.MaxSize = r.Int("max_jd_size")
		p.Tol = r.Float("eig_tol")
		p.FgmresSize = r.Int("fgmres_size")
		p.EigRtol = r.Float("eig_rtol")
		p.EigAtol = r.Float("eig_atol")
		p.NumRecycle = r.Int("num_recycle")
		p.Recycle = RecycleSumTwo
		if r.String("recycle_type") == "num_recycling" {
			p.Recycle = RecycleNum
		}
	} else {
		p.MaxSize = r.Int("max_lanczos")
		p.Tol = r.Float("tol")
		p.Recycle = RecycleSumTwo
	}
	if err = r.Err(); err != nil {
		return nil, err
	}

	// add constraint
	if target == nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "frequency constraint needs a problem")
	}
	if err = target.AddFrequencyConstraint(p); err != nil {
		return nil, errs.Solver(err, "cannot add frequency constraint")
	}
	return
}
