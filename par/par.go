// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package par holds the partition context threaded through all partition-sensitive operations
package par

import (
	"github.com/peekwez/tmr/errs"
)

// Comm is the group of cooperating processes. Barrier and the reductions are collective: all
// processes must call them together or the group deadlocks.
type Comm interface {
	Rank() int                         // this process
	Size() int                         // number of processes
	Barrier()                          // synchronise all processes
	AllReduceSum(dest, orig []float64) // dest := Σ orig over all processes
	AllReduceMax(dest, orig []float64) // dest := max orig over all processes
}

// serial is the one-partition communicator
type serial struct{}

// Serial returns a communicator with a single process (rank 0, size 1)
func Serial() Comm { return serial{} }

func (serial) Rank() int { return 0 }
func (serial) Size() int { return 1 }
func (serial) Barrier()  {}

func (serial) AllReduceSum(dest, orig []float64) { copy(dest, orig) }
func (serial) AllReduceMax(dest, orig []float64) { copy(dest, orig) }

// Range is a contiguous ownership range of global indices [Lo, Hi)
type Range struct {
	Lo int // first owned index
	Hi int // one past the last owned index
}

// Owns tells whether the global index i belongs to this range
func (o Range) Owns(i int) bool { return i >= o.Lo && i < o.Hi }

// Local returns the local index corresponding to the global index i
func (o Range) Local(i int) int { return i - o.Lo }

// Len returns the number of owned indices
func (o Range) Len() int { return o.Hi - o.Lo }

// OwnedRange selects the range of this process from an offsets array with nproc+1 entries
func OwnedRange(offsets []int, comm Comm) (r Range, err error) {
	if len(offsets) != comm.Size()+1 {
		err = errs.New(errs.ErrDimensionMismatch, "node range must have %d offsets (nproc+1); got %d", comm.Size()+1, len(offsets))
		return
	}
	r = Range{offsets[comm.Rank()], offsets[comm.Rank()+1]}
	if r.Hi < r.Lo {
		err = errs.New(errs.ErrDimensionMismatch, "node range of proc %d is inverted: [%d, %d)", comm.Rank(), r.Lo, r.Hi)
	}
	return
}

// ShowMsg tells whether this process prints messages
func ShowMsg(comm Comm, verbose bool) bool {
	return verbose && comm.Rank() == 0
}
