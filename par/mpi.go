// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build mpi

package par

import "github.com/cpmech/gosl/mpi"

// world wraps the MPI world communicator
type world struct {
	c *mpi.Communicator
}

func (o *world) Rank() int { return o.c.Rank() }
func (o *world) Size() int { return o.c.Size() }
func (o *world) Barrier()  { o.c.Barrier() }

func (o *world) AllReduceSum(dest, orig []float64) { o.c.AllReduceSum(dest, orig) }
func (o *world) AllReduceMax(dest, orig []float64) { o.c.AllReduceMax(dest, orig) }

// Start initialises MPI
func Start() { mpi.Start() }

// Stop finalises MPI
func Stop() { mpi.Stop() }

// World returns the communicator with all processes
func World() Comm {
	if !mpi.IsOn() {
		return Serial()
	}
	return &world{mpi.NewCommunicator(nil)}
}
