// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !mpi

package par

// Start does nothing in builds without MPI
func Start() {}

// Stop does nothing in builds without MPI
func Stop() {}

// World returns the serial communicator in builds without MPI
func World() Comm { return Serial() }
