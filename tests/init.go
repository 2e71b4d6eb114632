// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package tests implements collaborators (forests, assemblers and NLP engines) used to test
// topology optimization problems
package tests

import (
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/peekwez/tmr/par"
)

func init() {
	io.Verbose = false
}

func Verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// Comm is a communicator with a given rank and size; reductions act on the local data only.
// Use NewGroup for communicators that exchange data.
type Comm struct {
	R, N int // rank and size
}

// NewComm returns a communicator of process rank among size processes
func NewComm(rank, size int) par.Comm { return &Comm{rank, size} }

func (o *Comm) Rank() int                         { return o.R }
func (o *Comm) Size() int                         { return o.N }
func (o *Comm) Barrier()                          {}
func (o *Comm) AllReduceSum(dest, orig []float64) { copy(dest, orig) }
func (o *Comm) AllReduceMax(dest, orig []float64) { copy(dest, orig) }

// group holds the state shared by the communicators of NewGroup
type group struct {
	mu    sync.Mutex
	cond  *sync.Cond
	size  int       // number of members
	count int       // members that have contributed to the current reduction
	gen   int       // number of completed reductions
	acc   []float64 // current reduction
	res   []float64 // result of the last completed reduction
}

// member is one communicator of a group
type member struct {
	rank int
	g    *group
}

// NewGroup returns size communicators sharing data in memory. Each communicator must be used
// by its own goroutine; see Run.
func NewGroup(size int) (comms []par.Comm) {
	g := &group{size: size}
	g.cond = sync.NewCond(&g.mu)
	for r := 0; r < size; r++ {
		comms = append(comms, &member{r, g})
	}
	return
}

// Run calls fn on size goroutines, one per communicator of a new group, and returns the errors
// indexed by rank
func Run(size int, fn func(comm par.Comm) error) []error {
	res := make([]error, size)
	var wg sync.WaitGroup
	for r, comm := range NewGroup(size) {
		wg.Add(1)
		go func(r int, comm par.Comm) {
			defer wg.Done()
			res[r] = fn(comm)
		}(r, comm)
	}
	wg.Wait()
	return res
}

func (o *member) Rank() int { return o.rank }
func (o *member) Size() int { return o.g.size }
func (o *member) Barrier()  { o.g.reduce(nil, nil, sum) }

func (o *member) AllReduceSum(dest, orig []float64) { o.g.reduce(dest, orig, sum) }
func (o *member) AllReduceMax(dest, orig []float64) { o.g.reduce(dest, orig, larger) }

// reduce combines orig of all members and blocks until every member has contributed
func (o *group) reduce(dest, orig []float64, op func(a, b float64) float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.count == 0 {
		o.acc = append([]float64{}, orig...)
	} else {
		if len(orig) != len(o.acc) {
			chk.Panic("reduction lengths differ: %d != %d", len(orig), len(o.acc))
		}
		for i, v := range orig {
			o.acc[i] = op(o.acc[i], v)
		}
	}
	o.count++
	if o.count == o.size {
		o.res, o.acc = o.acc, nil
		o.count = 0
		o.gen++
		o.cond.Broadcast()
	} else {
		for gen := o.gen; gen == o.gen; {
			o.cond.Wait()
		}
	}
	copy(dest, o.res)
}

func sum(a, b float64) float64 { return a + b }

func larger(a, b float64) float64 {
	if b > a {
		return b
	}
	return a
}
