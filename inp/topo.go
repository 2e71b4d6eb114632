// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"encoding/json"
	"fmt"
	goio "io"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
)

// FilterData holds the design-parametrization (filter) data
type FilterData struct {
	Type string  `json:"type"` // "lagrange", "matrix", "conform" or "helmholtz"
	S    float64 `json:"s"`    // matrix filter: smoothing parameter
	N    int     `json:"n"`    // matrix filter: approximation parameter
	R0   float64 `json:"r0"`   // helmholtz filter: radius
}

// MgData holds multigrid data
type MgData struct {
	Omega         float64 `json:"omega"`         // relaxation factor
	CoarseDirect  bool    `json:"coarsedirect"`  // direct solve on the coarsest level
	Chebyshev     bool    `json:"chebyshev"`     // use Chebyshev smoothers instead of Gauss-Seidel
	ChebDegree    int     `json:"chebdegree"`    // degree of Chebyshev smoother
	SmoothIters   int     `json:"smoothiters"`   // smoothing iterations
	ItersPerLevel int     `json:"itersperlevel"` // iterations per level
}

// RefineData holds data for density-based adaptive refinement
type RefineData struct {
	Ncycles int     `json:"ncycles"` // number of refinement cycles after the first optimization
	Index   int     `json:"index"`   // index of design output value
	Lower   float64 `json:"lower"`   // coarsen if value ≤ lower
	Upper   float64 `json:"upper"`   // refine if value ≥ upper
	Reverse bool    `json:"reverse"` // swap refine and coarsen
	MinLev  int     `json:"minlev"`  // min refinement level
	MaxLev  int     `json:"maxlev"`  // max refinement level
}

// LoadData holds one load definition
type LoadData struct {
	Kind   string    `json:"kind"`   // "vertex" or "traction3d"
	Name   string    `json:"name"`   // name of vertices or faces
	Values []float64 `json:"values"` // vertex: point force [vpn]; traction3d: [tx, ty, tz]
}

// FreqData holds data for a natural frequency constraint
type FreqData struct {
	OmegaMin float64                `json:"omegamin"` // min natural frequency [Hz]
	Options  map[string]interface{} `json:"options"`  // overrides of constraint parameters
}

// TopoData holds all input data for a topology optimization
type TopoData struct {

	// input
	Desc        string                 `json:"desc"`        // description
	Nlevels     int                    `json:"nlevels"`     // number of multigrid levels
	Repartition bool                   `json:"repartition"` // repartition forests
	VarsPerNode int                    `json:"varspernode"` // design variables per node
	LowestOrder int                    `json:"lowestorder"` // lowest mesh order
	Scale       float64                `json:"scale"`       // coordinates scale factor
	Filter      FilterData             `json:"filter"`      // filter data
	Mg          MgData                 `json:"mg"`          // multigrid data
	Refine      RefineData             `json:"refine"`      // refinement data
	Loads       []*LoadData            `json:"loads"`       // loads
	Options     map[string]interface{} `json:"options"`     // optimizer options (overrides)
	Freq        *FreqData              `json:"freq"`        // natural frequency constraint

	// derived
	Key  string   // file name key; e.g. beam.topo => beam
	Opts *OptData // validated optimizer options
}

// SetDefault sets default values
func (o *TopoData) SetDefault() {
	o.Nlevels = 2
	o.Repartition = true
	o.VarsPerNode = 1
	o.LowestOrder = 2
	o.Scale = 1.0
	o.Filter.S = 2.0
	o.Filter.N = 10
	o.Filter.R0 = 0.05
	o.Mg.Omega = 1.0
	o.Mg.CoarseDirect = true
	o.Mg.ChebDegree = 3
	o.Mg.SmoothIters = 1
	o.Mg.ItersPerLevel = 1
	o.Refine.Lower = 0.05
	o.Refine.Upper = 0.5
	o.Refine.MaxLev = mesh.MaxLevel
}

// PostProcess checks the data just read and validates the optimizer options
func (o *TopoData) PostProcess() (err error) {
	bad := func(msg string, prm ...interface{}) error {
		return errs.New(errs.ErrInvalidConfiguration, msg, prm...)
	}
	if o.Nlevels < 1 {
		return bad("nlevels must be at least 1; got %d", o.Nlevels)
	}
	if o.VarsPerNode < 1 {
		return bad("varspernode must be at least 1; got %d", o.VarsPerNode)
	}
	if o.Scale <= 0 {
		return bad("scale must be positive; got %g", o.Scale)
	}
	switch o.Filter.Type {
	case "lagrange", "matrix", "conform", "helmholtz":
	default:
		return bad("filter type %q is invalid; must be one of lagrange, matrix, conform, helmholtz", o.Filter.Type)
	}
	if o.Refine.Ncycles < 0 {
		return bad("refine.ncycles must not be negative; got %d", o.Refine.Ncycles)
	}
	if o.Refine.Lower > o.Refine.Upper {
		return bad("refine.lower=%g must not exceed refine.upper=%g", o.Refine.Lower, o.Refine.Upper)
	}
	if o.Refine.MinLev < 0 || o.Refine.MinLev > o.Refine.MaxLev || o.Refine.MaxLev > mesh.MaxLevel {
		return bad("refinement levels must satisfy 0 ≤ minlev ≤ maxlev ≤ %d; got [%d, %d]", mesh.MaxLevel, o.Refine.MinLev, o.Refine.MaxLev)
	}
	for i, l := range o.Loads {
		switch l.Kind {
		case "vertex":
			if len(l.Values) == 0 {
				return bad("load %d (%q) has no values", i, l.Name)
			}
		case "traction3d":
			if len(l.Values) != 3 {
				return bad("load %d (%q): traction3d requires 3 values; got %d", i, l.Name, len(l.Values))
			}
		default:
			return bad("load %d (%q) has invalid kind %q; must be vertex or traction3d", i, l.Name, l.Kind)
		}
	}
	if o.Freq != nil && o.Freq.OmegaMin <= 0 {
		return bad("freq.omegamin must be positive; got %g", o.Freq.OmegaMin)
	}
	o.Opts, err = ParseOpts(o.Options)
	return
}

// ReadTopo reads a (.topo) JSON file
func ReadTopo(fnpath string) (o *TopoData, err error) {

	// read file
	b, err := os.ReadFile(os.ExpandEnv(fnpath))
	if err != nil {
		return nil, chk.Err("cannot read topology file %q:\n%v", fnpath, err)
	}

	// decode
	o = new(TopoData)
	o.SetDefault()
	err = json.Unmarshal(b, o)
	if err != nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "cannot unmarshal topology file %q: %v", fnpath, err)
	}

	// option values must keep ints as ints
	var raw struct {
		Options json.RawMessage `json:"options"`
		Freq    *struct {
			Options json.RawMessage `json:"options"`
		} `json:"freq"`
	}
	if err = json.Unmarshal(b, &raw); err != nil {
		return nil, errs.New(errs.ErrInvalidConfiguration, "cannot unmarshal topology file %q: %v", fnpath, err)
	}
	if len(raw.Options) > 0 {
		if o.Options, err = DecodeValues(raw.Options); err != nil {
			return nil, errs.New(errs.ErrInvalidConfiguration, "cannot decode options in %q: %v", fnpath, err)
		}
	}
	if raw.Freq != nil && len(raw.Freq.Options) > 0 && o.Freq != nil {
		if o.Freq.Options, err = DecodeValues(raw.Freq.Options); err != nil {
			return nil, errs.New(errs.ErrInvalidConfiguration, "cannot decode freq options in %q: %v", fnpath, err)
		}
	}

	// derived
	o.Key = io.FnKey(filepath.Base(fnpath))
	err = o.PostProcess()
	if err != nil {
		return nil, fmt.Errorf("topology file %q is invalid: %w", fnpath, err)
	}
	return
}

// GetInfo writes formatted information
func (o *TopoData) GetInfo(w goio.Writer) (err error) {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return
}
