// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"github.com/peekwez/tmr/errs"
	"github.com/peekwez/tmr/mesh"
)

// Transfer interpolates a design vector from oldSpace onto newSpace and stores the result in
// newVec. newVec is left untouched when Transfer fails.
//  Note: oldVec and newVec must be *Vec created by the respective spaces. Transfer is collective;
//        all processes must call it together, including processes owning no design nodes
func Transfer(oldSpace *Space, oldVec interface{}, newSpace *Space, newVec interface{}) (err error) {

	// check vectors
	if oldSpace == nil || newSpace == nil {
		return errs.New(errs.ErrInvalidConfiguration, "design spaces must be given")
	}
	src, err := asVec(oldVec, oldSpace, "old")
	if err != nil {
		return
	}
	dst, err := asVec(newVec, newSpace, "new")
	if err != nil {
		return
	}

	// check dimensions
	vpn := oldSpace.vpn
	if newSpace.vpn != vpn {
		return errs.New(errs.ErrDimensionMismatch, "design variables per node differ: old=%d new=%d", vpn, newSpace.vpn)
	}
	if len(src.X) != oldSpace.Dim() {
		return errs.New(errs.ErrDimensionMismatch, "old design vector must have %d entries; got %d", oldSpace.Dim(), len(src.X))
	}
	if len(dst.X) != newSpace.Dim() {
		return errs.New(errs.ErrDimensionMismatch, "new design vector must have %d entries; got %d", newSpace.Dim(), len(dst.X))
	}

	// interpolation operator
	op, err := mesh.NewInterp(newSpace.comm, newSpace.offsets, oldSpace.offsets, vpn)
	if err != nil {
		return
	}
	err = newSpace.Mesh().CreateInterpolation(oldSpace.Mesh(), op)
	if err != nil {
		return errs.Solver(err, "cannot create design interpolation")
	}
	op.Initialize()

	// apply
	work := make([]float64, len(dst.X))
	err = op.Mult(src.X, work)
	if err != nil {
		return
	}
	copy(dst.X, work)
	return
}

// asVec checks that v is a design vector of space s
func asVec(v interface{}, s *Space, which string) (*Vec, error) {
	x, ok := v.(*Vec)
	if !ok || x == nil {
		return nil, errs.New(errs.ErrInvalidVector, "%s vector is %T; a design vector is required", which, v)
	}
	if x.space != s {
		return nil, errs.New(errs.ErrInvalidVector, "%s vector does not belong to the %s design space", which, which)
	}
	return x, nil
}
