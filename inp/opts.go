// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"bytes"
	"encoding/json"
	"math"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/peekwez/tmr/errs"
)

// Strategy is the nonlinear optimization algorithm
type Strategy int

const (
	TrustRegion   Strategy = iota // trust-region sequential convex programming
	InteriorPoint                 // interior-point method
)

// QnType is the quasi-Newton Hessian approximation
type QnType int

const (
	BFGS            QnType = iota // limited-memory BFGS
	SR1                           // limited-memory SR1
	NoHessianApprox               // no approximation
)

// NormType is the norm used by the optimizer
type NormType int

const (
	InfinityNorm NormType = iota
	L1Norm
	L2Norm
)

// BarrierStrategy is the strategy to update the barrier parameter
type BarrierStrategy int

const (
	Monotone BarrierStrategy = iota
	Mehrotra
	ComplementarityFraction
)

// StartStrategy is the starting point strategy
type StartStrategy int

const (
	NoStartStrategy StartStrategy = iota
	LeastSquaresMultipliers
	AffineStep
)

// BfgsUpdate is the type of BFGS update
type BfgsUpdate int

const (
	SkipNegativeCurvature BfgsUpdate = iota
	DampedUpdate
)

// names of the enumerated values as given in option files
var (
	strategyNames = []string{"Trust Region", "Interior Point"}
	qnNames       = []string{"BFGS", "SR1", "No Hessian approx"}
	normNames     = []string{"Infinity", "L1", "L2"}
	barrierNames  = []string{"Monotone", "Mehrotra", "Complementarity fraction"}
	startNames    = []string{"None", "Least squares multipliers", "Affine step"}
	bfgsNames     = []string{"Skip negative", "Damped"}
)

func (o Strategy) String() string        { return strategyNames[o] }
func (o QnType) String() string          { return qnNames[o] }
func (o NormType) String() string        { return normNames[o] }
func (o BarrierStrategy) String() string { return barrierNames[o] }
func (o StartStrategy) String() string   { return startNames[o] }
func (o BfgsUpdate) String() string      { return bfgsNames[o] }

// GradCheck holds the gradient check frequency and finite difference step
type GradCheck struct {
	Freq int     // check every Freq iterations
	Step float64 // finite difference step
}

// OptData holds the validated optimizer options
//  Note: nil pointers mean "not given"; the solver defaults are kept for those
type OptData struct {

	// main
	Strategy      Strategy // algorithm
	Tol           float64  // absolute optimality tolerance
	MaxIter       int      // max number of (major or trust-region) iterations
	QnType        QnType   // Hessian approximation
	MaxQnSubspace int      // size of quasi-Newton subspace

	// optional knobs
	Dh                      *float64         // finite difference step for gradient check
	NormType                *NormType        // norm type
	BarrierStrategy         *BarrierStrategy // barrier strategy
	StartStrategy           *StartStrategy   // starting point strategy
	PenaltyGamma            *float64         // penalty parameter gamma
	BarrierFraction         *float64         // barrier fraction
	BarrierPower            *float64         // barrier power
	HessianResetFreq        *int             // Hessian reset frequency
	QnDiagFactor            *float64         // quasi-Newton diagonal factor
	BfgsUpdateType          *BfgsUpdate      // BFGS update type
	UseSequentialLinear     *bool            // sequential linear method
	AffineStepMultiplierMin *float64         // min multiplier for affine step
	InitBarrierParameter    *float64         // initial barrier parameter
	RelativeBarrier         *float64         // relative barrier parameter
	QnUpdates               *bool            // use quasi-Newton updates

	// line search
	UseLineSearch      *bool    // use line search
	MaxLsIters         *int     // max line search iterations
	BacktrackLs        *bool    // backtracking line search
	ArmijoParam        *float64 // Armijo parameter
	PenaltyDescentFrac *float64 // penalty descent fraction
	MinPenaltyParam    *float64 // min line search penalty

	// GMRES
	UseHvecProd       *bool       // Hessian-vector products with GMRES
	UseDiagHessian    *bool       // diagonal Hessian
	UseQnGmresPrecon  *bool       // quasi-Newton GMRES preconditioner
	NkSwitchTol       *float64    // Newton-Krylov switch tolerance
	EisenstatWalker   *[2]float64 // [gamma, alpha]
	GmresTol          *[2]float64 // [rtol, atol]
	GmresSubspaceSize *int        // GMRES subspace size

	// output
	OutputFreq         *int       // output frequency
	OutputFile         *string    // output file name
	MajorIterStepCheck *int       // major iteration step check
	OutputLevel        *int       // output level
	GradCheckFreq      *GradCheck // gradient check frequency and step

	// trust region
	TrAdaptiveGammaUpdate bool    // adaptive penalty algorithm
	TrMinSize             float64 // min trust region radius
	TrMaxSize             float64 // max trust region radius
	TrInitSize            float64 // initial trust region radius
	TrEta                 float64 // acceptance ratio
	TrPenaltyGamma        float64 // penalty parameter
	TrPenaltyGammaMax     float64 // max penalty parameter
	TrInfeasTol           float64 // infeasibility tolerance (l1 norm)
	TrL1Tol               float64 // optimality tolerance (l1 norm)
	TrLinftyTol           float64 // optimality tolerance (l-infinity norm)
	TrOutputFile          *string // trust region output file
	TrWriteOutputFreq     int     // trust region output frequency
}

// NewOptRegistry returns a registry with all optimizer options declared
func NewOptRegistry() (o *Registry) {
	o = NewRegistry()
	zero := Bound(0)
	decl := func(e *Entry) {
		if err := o.Declare(e); err != nil {
			chk.Panic("cannot declare optimizer option:\n%v", err)
		}
	}
	enum := func(names []string) (vals []interface{}) {
		for _, n := range names {
			vals = append(vals, n)
		}
		return
	}

	// main
	decl(&Entry{Name: "optimizer", Value: "Trust Region", Kind: KindString, Allowed: enum(strategyNames), Desc: "Type of optimization algorithm"})
	decl(&Entry{Name: "tol", Value: 1.0e-6, Kind: KindFloat, Lower: zero, Desc: "Tolerance for termination"})
	decl(&Entry{Name: "maxiter", Value: 200, Kind: KindInt, Lower: zero, Desc: "Maximum number of iterations"})
	decl(&Entry{Name: "dh", Kind: KindFloat, Desc: "Finite difference step size. If not given, no gradient check is performed"})
	decl(&Entry{Name: "norm_type", Kind: KindString, Allowed: enum(normNames), Desc: "Norm type"})
	decl(&Entry{Name: "barrier_strategy", Kind: KindString, Allowed: enum(barrierNames), Desc: "Barrier strategy"})
	decl(&Entry{Name: "start_strategy", Kind: KindString, Allowed: enum(startNames), Desc: "Starting point strategy"})
	decl(&Entry{Name: "penalty_gamma", Kind: KindFloat, Desc: "Value of penalty parameter gamma"})
	decl(&Entry{Name: "barrier_fraction", Kind: KindFloat, Desc: "Barrier fraction"})
	decl(&Entry{Name: "barrier_power", Kind: KindFloat, Desc: "Barrier power"})
	decl(&Entry{Name: "hessian_reset_freq", Kind: KindInt, Desc: "Hessian reset frequency"})
	decl(&Entry{Name: "qn_type", Value: "BFGS", Kind: KindString, Allowed: enum(qnNames), Desc: "Type of Hessian approximation to use"})
	decl(&Entry{Name: "max_qn_subspace", Value: 10, Kind: KindInt, Desc: "Size of the QN subspace"})
	decl(&Entry{Name: "qn_diag_factor", Kind: KindFloat, Desc: "QN diagonal factor"})
	decl(&Entry{Name: "bfgs_update_type", Kind: KindString, Allowed: enum(bfgsNames), Desc: "Type of BFGS update to apply"})
	decl(&Entry{Name: "use_sequential_linear", Kind: KindBool, Desc: "Use a sequential linear method"})
	decl(&Entry{Name: "affine_step_multiplier_min", Kind: KindFloat, Desc: "Minimum multiplier for affine step"})
	decl(&Entry{Name: "init_barrier_parameter", Kind: KindFloat, Desc: "Initial barrier parameter"})
	decl(&Entry{Name: "relative_barrier", Kind: KindFloat, Desc: "Relative barrier parameter"})
	decl(&Entry{Name: "qn_updates", Kind: KindBool, Desc: "Update the Quasi-Newton"})

	// line search
	decl(&Entry{Name: "use_line_search", Kind: KindBool, Desc: "Use line search"})
	decl(&Entry{Name: "max_ls_iters", Kind: KindInt, Desc: "Max number of line search iterations"})
	decl(&Entry{Name: "backtrack_ls", Kind: KindBool, Desc: "Use backtracking line search"})
	decl(&Entry{Name: "armijo_param", Kind: KindFloat, Desc: "Armijo parameter for line search"})
	decl(&Entry{Name: "penalty_descent_frac", Kind: KindFloat, Desc: "Descent fraction penalty"})
	decl(&Entry{Name: "min_penalty_param", Kind: KindFloat, Desc: "Minimum line search penalty"})

	// GMRES
	decl(&Entry{Name: "use_hvec_prod", Kind: KindBool, Desc: "Use Hvec product with GMRES"})
	decl(&Entry{Name: "use_diag_hessian", Kind: KindBool, Desc: "Use a diagonal Hessian"})
	decl(&Entry{Name: "use_qn_gmres_precon", Kind: KindBool, Desc: "Use QN GMRES preconditioner"})
	decl(&Entry{Name: "set_nk_switch_tol", Kind: KindFloat, Desc: "NK switch tolerance"})
	decl(&Entry{Name: "eisenstat_walker_param", Kind: KindFloatPair, Desc: "Eisenstat Walker parameters: [gamma, alpha]"})
	decl(&Entry{Name: "gmres_tol", Kind: KindFloatPair, Desc: "GMRES tolerances: [rtol, atol]"})
	decl(&Entry{Name: "gmres_subspace_size", Kind: KindInt, Desc: "GMRES subspace size"})

	// output
	decl(&Entry{Name: "output_freq", Kind: KindInt, Desc: "Output frequency"})
	decl(&Entry{Name: "output_file", Kind: KindString, Desc: "Output file name"})
	decl(&Entry{Name: "major_iter_step_check", Kind: KindInt, Desc: "Major iter step check"})
	decl(&Entry{Name: "output_level", Kind: KindInt, Desc: "Output level"})
	decl(&Entry{Name: "grad_check_freq", Kind: KindFloatPair, Desc: "Gradient check frequency: [freq, step_size]"})

	// trust region
	decl(&Entry{Name: "tr_adaptive_gamma_update", Value: true, Kind: KindBool, Desc: "Use the adaptive penalty algorithm"})
	decl(&Entry{Name: "tr_min_size", Value: 1e-6, Kind: KindFloat, Lower: zero, Desc: "Minimum trust region radius size"})
	decl(&Entry{Name: "tr_max_size", Value: 10.0, Kind: KindFloat, Lower: zero, Desc: "Maximum trust region radius size"})
	decl(&Entry{Name: "tr_init_size", Value: 1.0, Kind: KindFloat, Lower: zero, Desc: "Initial trust region radius size"})
	decl(&Entry{Name: "tr_eta", Value: 0.25, Kind: KindFloat, Lower: zero, Upper: Bound(1), Desc: "Trust region radius acceptance ratio"})
	decl(&Entry{Name: "tr_penalty_gamma", Value: 10.0, Kind: KindFloat, Lower: zero, Desc: "Trust region penalty parameter value"})
	decl(&Entry{Name: "tr_penalty_gamma_max", Value: 1e4, Kind: KindFloat, Lower: zero, Desc: "Trust region maximum penalty parameter value"})
	decl(&Entry{Name: "tr_infeas_tol", Value: 1e-5, Kind: KindFloat, Lower: zero, Desc: "Trust region infeasibility tolerance (l1 norm)"})
	decl(&Entry{Name: "tr_l1_tol", Value: 1e-5, Kind: KindFloat, Lower: zero, Desc: "Trust region optimality tolerance (l1 norm)"})
	decl(&Entry{Name: "tr_linfty_tol", Value: 1e-5, Kind: KindFloat, Lower: zero, Desc: "Trust region optimality tolerance (l-infinity norm)"})
	decl(&Entry{Name: "tr_output_file", Kind: KindString, Desc: "Trust region output file name"})
	decl(&Entry{Name: "tr_write_output_freq", Value: 10, Kind: KindInt, Desc: "Trust region output frequency"})
	return
}

// ParseOpts validates overrides against the optimizer registry and returns typed options.
// All invalid overrides are reported together; nothing is returned in that case.
func ParseOpts(overrides map[string]interface{}) (o *OptData, err error) {
	reg := NewOptRegistry()
	err = reg.WriteAll(overrides)
	if err != nil {
		return nil, err
	}
	return NewOptData(reg)
}

// ReadOpts reads optimizer options from a JSON file
func ReadOpts(fnpath string) (o *OptData, err error) {
	b, err := os.ReadFile(os.ExpandEnv(fnpath))
	if err != nil {
		return nil, chk.Err("cannot read options file %q:\n%v", fnpath, err)
	}
	overrides, err := DecodeValues(b)
	if err != nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "cannot decode options file %q: %v", fnpath, err)
	}
	return ParseOpts(overrides)
}

// DecodeValues decodes a JSON object; integral numbers become int and the other numbers float64
func DecodeValues(b []byte) (values map[string]interface{}, err error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	err = dec.Decode(&values)
	if err != nil {
		return
	}
	for key, val := range values {
		values[key] = normalize(val)
	}
	return
}

// NewOptData extracts typed options from a registry created by NewOptRegistry
func NewOptData(reg *Registry) (o *OptData, err error) {
	o = new(OptData)
	r := NewReader(reg)

	// main
	o.Strategy = Strategy(r.Enum("optimizer", strategyNames))
	o.Tol = r.Float("tol")
	o.MaxIter = r.Int("maxiter")
	o.QnType = QnType(r.Enum("qn_type", qnNames))
	o.MaxQnSubspace = r.Int("max_qn_subspace")

	// optional knobs
	o.Dh = r.OptFloat("dh")
	if i, ok := r.OptEnum("norm_type", normNames); ok {
		v := NormType(i)
		o.NormType = &v
	}
	if i, ok := r.OptEnum("barrier_strategy", barrierNames); ok {
		v := BarrierStrategy(i)
		o.BarrierStrategy = &v
	}
	if i, ok := r.OptEnum("start_strategy", startNames); ok {
		v := StartStrategy(i)
		o.StartStrategy = &v
	}
	o.PenaltyGamma = r.OptFloat("penalty_gamma")
	o.BarrierFraction = r.OptFloat("barrier_fraction")
	o.BarrierPower = r.OptFloat("barrier_power")
	o.HessianResetFreq = r.OptInt("hessian_reset_freq")
	o.QnDiagFactor = r.OptFloat("qn_diag_factor")
	if i, ok := r.OptEnum("bfgs_update_type", bfgsNames); ok {
		v := BfgsUpdate(i)
		o.BfgsUpdateType = &v
	}
	o.UseSequentialLinear = r.OptBool("use_sequential_linear")
	o.AffineStepMultiplierMin = r.OptFloat("affine_step_multiplier_min")
	o.InitBarrierParameter = r.OptFloat("init_barrier_parameter")
	o.RelativeBarrier = r.OptFloat("relative_barrier")
	o.QnUpdates = r.OptBool("qn_updates")

	// line search
	o.UseLineSearch = r.OptBool("use_line_search")
	o.MaxLsIters = r.OptInt("max_ls_iters")
	o.BacktrackLs = r.OptBool("backtrack_ls")
	o.ArmijoParam = r.OptFloat("armijo_param")
	o.PenaltyDescentFrac = r.OptFloat("penalty_descent_frac")
	o.MinPenaltyParam = r.OptFloat("min_penalty_param")

	// GMRES
	o.UseHvecProd = r.OptBool("use_hvec_prod")
	o.UseDiagHessian = r.OptBool("use_diag_hessian")
	o.UseQnGmresPrecon = r.OptBool("use_qn_gmres_precon")
	o.NkSwitchTol = r.OptFloat("set_nk_switch_tol")
	o.EisenstatWalker = r.OptPair("eisenstat_walker_param")
	o.GmresTol = r.OptPair("gmres_tol")
	o.GmresSubspaceSize = r.OptInt("gmres_subspace_size")

	// output
	o.OutputFreq = r.OptInt("output_freq")
	o.OutputFile = r.OptString("output_file")
	o.MajorIterStepCheck = r.OptInt("major_iter_step_check")
	o.OutputLevel = r.OptInt("output_level")
	if p := r.OptPair("grad_check_freq"); p != nil {
		if math.IsInf(p[0], 0) || p[0] != math.Trunc(p[0]) {
			r.Keep(errs.New(errs.ErrTypeMismatch, "option %q: frequency must be an integer; got %g", "grad_check_freq", p[0]))
		}
		o.GradCheckFreq = &GradCheck{Freq: int(p[0]), Step: p[1]}
	}

	// trust region
	o.TrAdaptiveGammaUpdate = r.Bool("tr_adaptive_gamma_update")
	o.TrMinSize = r.Float("tr_min_size")
	o.TrMaxSize = r.Float("tr_max_size")
	o.TrInitSize = r.Float("tr_init_size")
	o.TrEta = r.Float("tr_eta")
	o.TrPenaltyGamma = r.Float("tr_penalty_gamma")
	o.TrPenaltyGammaMax = r.Float("tr_penalty_gamma_max")
	o.TrInfeasTol = r.Float("tr_infeas_tol")
	o.TrL1Tol = r.Float("tr_l1_tol")
	o.TrLinftyTol = r.Float("tr_linfty_tol")
	o.TrOutputFile = r.OptString("tr_output_file")
	o.TrWriteOutputFreq = r.Int("tr_write_output_freq")
	if r.Err() == nil && o.TrMinSize > o.TrMaxSize {
		r.Keep(errs.New(errs.ErrInvalidConfiguration, "options %q (%g) and %q (%g): min trust region size exceeds max size", "tr_min_size", o.TrMinSize, "tr_max_size", o.TrMaxSize))
	}

	if err = r.Err(); err != nil {
		return nil, err
	}
	return
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// normalize converts json.Number values to int or float64
func normalize(val interface{}) interface{} {
	switch v := val.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return f
	case []interface{}:
		for i := range v {
			v[i] = normalize(v[i])
		}
		return v
	case map[string]interface{}:
		for k := range v {
			v[k] = normalize(v[k])
		}
		return v
	}
	return val
}
