// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package errs defines the error kinds shared by all packages
package errs

import (
	"errors"
	"fmt"
)

// kind is an error kind that may belong to a broader kind
type kind struct {
	msg    string
	parent error
}

func (o *kind) Error() string { return o.msg }
func (o *kind) Unwrap() error { return o.parent }

// error kinds
var (
	// ErrInvalidConfiguration flags bad filter kinds and bad option values; always fatal and
	// raised before any numerical work starts
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnknownOption flags a name that was never declared in a registry
	ErrUnknownOption = errors.New("unknown option")

	// ErrTypeMismatch, ErrBoundViolation and ErrValueNotAllowed are also ErrInvalidConfiguration
	ErrTypeMismatch    error = &kind{"type mismatch", ErrInvalidConfiguration}
	ErrBoundViolation  error = &kind{"bound violation", ErrInvalidConfiguration}
	ErrValueNotAllowed error = &kind{"value not allowed", ErrInvalidConfiguration}

	// ErrDimensionMismatch flags load or vector sizes inconsistent with a mesh
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidVector flags a vector that does not belong to a filter-governed design space
	ErrInvalidVector = errors.New("invalid vector")

	// ErrSolverFailure wraps failures reported by the NLP solver, assembler or forest
	ErrSolverFailure = errors.New("solver failure")
)

// New returns an error of the given kind with formatted context
func New(k error, msg string, prm ...interface{}) error {
	return fmt.Errorf("%w: %s", k, fmt.Sprintf(msg, prm...))
}

// Solver wraps an error coming from a collaborator. Both ErrSolverFailure and the original
// error remain reachable by errors.Is and errors.As. Errors that already carry a kind of this
// package are returned with the context prepended only.
func Solver(err error, msg string, prm ...interface{}) error {
	if err == nil {
		return nil
	}
	ctx := fmt.Sprintf(msg, prm...)
	if Classified(err) {
		return fmt.Errorf("%s: %w", ctx, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrSolverFailure, ctx, err)
}

// Classified tells whether err already carries one of the kinds of this package
func Classified(err error) bool {
	for _, k := range []error{ErrInvalidConfiguration, ErrUnknownOption, ErrDimensionMismatch,
		ErrInvalidVector, ErrSolverFailure} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
