// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package refine implements density-based adaptive refinement
package refine

import (
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
)

// refinement decisions
const (
	Coarsen = -1
	Keep    = 0
	Refine  = +1
)

// Decide returns the refinement decision of an element with output value
//  Note: refine if value ≥ upper and coarsen if value ≤ lower; reverse swaps both actions
func Decide(value, lower, upper float64, reverse bool) int {
	d := Keep
	if value >= upper {
		d = Refine
	} else if value <= lower {
		d = Coarsen
	}
	if reverse {
		return -d
	}
	return d
}

// Params holds refinement parameters
type Params struct {
	Index    int     // index of design-dependent output value; e.g. 0 => density
	Lower    float64 // coarsen below this
	Upper    float64 // refine above this
	Reverse  bool    // coarsen above Upper and refine below Lower
	MinLevel int     // min refinement level
	MaxLevel int     // max refinement level
}

// Validate checks the parameters
func (o *Params) Validate() error {
	if o.Lower > o.Upper {
		return errs.New(errs.ErrInvalidConfiguration, "refinement: lower=%g must not exceed upper=%g", o.Lower, o.Upper)
	}
	if o.MinLevel < 0 || o.MinLevel > o.MaxLevel || o.MaxLevel > mesh.MaxLevel {
		return errs.New(errs.ErrInvalidConfiguration, "refinement: levels must satisfy 0 ≤ min ≤ max ≤ %d; got [%d, %d]", mesh.MaxLevel, o.MinLevel, o.MaxLevel)
	}
	return nil
}

// DensityBased refines the forest of level according to the design-dependent output value of
// each element, sampled at the parametric origin. Elements without material model are kept.
//  Note: Forest.Refine is collective; all processes must call DensityBased together
func DensityBased(level *mesh.Level, prms *Params) (decisions []int, err error) {
	if err = prms.Validate(); err != nil {
		return
	}
	var origin [3]float64
	asm := level.Assembler
	decisions = make([]int, asm.NumElements())
	for e := range decisions {
		c := asm.Constitutive(e)
		if c == nil {
			continue
		}
		decisions[e] = Decide(c.DVOutputValue(prms.Index, origin), prms.Lower, prms.Upper, prms.Reverse)
	}
	err = level.Forest.Refine(decisions, prms.MinLevel, prms.MaxLevel)
	if err != nil {
		return nil, errs.Solver(err, "cannot refine forest")
	}
	return
}

// Stats returns the number of elements to be refined, coarsened and kept
func Stats(decisions []int) (nrefine, ncoarsen, nkeep int) {
	for _, d := range decisions {
		switch {
		case d > 0:
			nrefine++
		case d < 0:
			ncoarsen++
		default:
			nkeep++
		}
	}
	return
}
