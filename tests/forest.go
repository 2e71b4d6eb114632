// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tests

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/peekwez/tmr/mesh"
)

// edges of quadrilaterals
const (
	EdgeXmin = iota // x = xmin
	EdgeXmax        // x = xmax
	EdgeYmin        // y = ymin
	EdgeYmax        // y = ymax
)

// QuadForest is a structured mesh with Nx×Ny quadrilaterals over [0,Lx]×[0,Ly]. Elements of
// order p have p nodes along each edge.
//  Named vertices: "corner" (Lx,0), "left" (x=0), "all"
//  Named edges:    "right" (x=Lx), "top" (y=Ly)
type QuadForest struct {
	Nx, Ny  int             // number of elements along x and y
	Lx, Ly  float64         // dimensions
	Order   int             // mesh order
	Interp  mesh.InterpType // node placement
	Level   int             // refinement level
	Offsets []int           // node ownership offsets; nil means an even split over Nprocs
	Rank    int             // process holding this forest
	Nprocs  int             // number of processes; 0 means 1

	Log     []string // calls to collective and structural methods
	Refined [][]int  // decisions passed to Refine
}

// NewQuadForest returns a new structured forest
func NewQuadForest(nx, ny int, lx, ly float64, order int) *QuadForest {
	return &QuadForest{Nx: nx, Ny: ny, Lx: lx, Ly: ly, Order: order, Interp: mesh.UniformPoints}
}

// NodesX returns the number of nodes along x
func (o *QuadForest) NodesX() int { return o.Nx*(o.Order-1) + 1 }

// NodesY returns the number of nodes along y
func (o *QuadForest) NodesY() int { return o.Ny*(o.Order-1) + 1 }

// Nnodes returns the total number of nodes
func (o *QuadForest) Nnodes() int { return o.NodesX() * o.NodesY() }

// Node returns the index of node (i,j) of the node grid
func (o *QuadForest) Node(i, j int) int { return i + j*o.NodesX() }

// X returns the coordinates of node (i,j)
func (o *QuadForest) X(i, j int) (x, y float64) {
	return o.Lx * float64(i) / float64(o.NodesX()-1), o.Ly * float64(j) / float64(o.NodesY()-1)
}

// EdgeNodes returns the nodes on edge of element e and the length of the edge
func (o *QuadForest) EdgeNodes(e, edge int) (nodes []int, length float64) {
	p := o.Order - 1
	ei, ej := e%o.Nx, e/o.Nx
	i0, j0 := ei*p, ej*p
	switch edge {
	case EdgeXmin, EdgeXmax:
		i := i0
		if edge == EdgeXmax {
			i += p
		}
		for j := j0; j <= j0+p; j++ {
			nodes = append(nodes, o.Node(i, j))
		}
		length = o.Ly / float64(o.Ny)
	case EdgeYmin, EdgeYmax:
		j := j0
		if edge == EdgeYmax {
			j += p
		}
		for i := i0; i <= i0+p; i++ {
			nodes = append(nodes, o.Node(i, j))
		}
		length = o.Lx / float64(o.Nx)
	}
	return
}

// mesh.Forest ////////////////////////////////////////////////////////////////////////////////////

func (o *QuadForest) Dim() int { return 2 }

func (o *QuadForest) Balance(corner bool) error {
	o.Log = append(o.Log, "balance")
	return nil
}

func (o *QuadForest) Repartition() error {
	o.Log = append(o.Log, "repartition")
	return nil
}

func (o *QuadForest) Duplicate() (mesh.Forest, error) {
	o.Log = append(o.Log, "duplicate")
	return o.clone(), nil
}

func (o *QuadForest) Coarsen() (mesh.Forest, error) {
	o.Log = append(o.Log, "coarsen")
	if o.Nx%2 != 0 || o.Ny%2 != 0 {
		return nil, chk.Err("cannot coarsen %d×%d quadrants", o.Nx, o.Ny)
	}
	c := o.clone()
	c.Nx, c.Ny = o.Nx/2, o.Ny/2
	c.Level = o.Level - 1
	return c, nil
}

func (o *QuadForest) MeshOrder() int { return o.Order }

func (o *QuadForest) InterpType() mesh.InterpType { return o.Interp }

func (o *QuadForest) SetMeshOrder(order int, interp mesh.InterpType) error {
	if order < 2 {
		return chk.Err("mesh order must be at least 2; got %d", order)
	}
	o.Order, o.Interp = order, interp
	return nil
}

func (o *QuadForest) NodeRange() []int {
	if o.Offsets != nil {
		return o.Offsets
	}
	np := o.Nprocs
	if np < 1 {
		np = 1
	}
	n := o.Nnodes()
	offsets := make([]int, np+1)
	for r := 0; r <= np; r++ {
		offsets[r] = r * n / np
	}
	return offsets
}

func (o *QuadForest) NodesWithName(name string) (nodes []int, err error) {
	switch name {
	case "corner":
		nodes = []int{o.Node(o.NodesX()-1, 0)}
	case "left":
		for j := 0; j < o.NodesY(); j++ {
			nodes = append(nodes, o.Node(0, j))
		}
	case "all":
		for n := 0; n < o.Nnodes(); n++ {
			nodes = append(nodes, n)
		}
	default:
		return nil, chk.Err("there are no vertices named %q", name)
	}
	return
}

func (o *QuadForest) ElemsWithName(name string) (hits []mesh.Hit, err error) {
	switch name {
	case "right":
		for ej := 0; ej < o.Ny; ej++ {
			hits = append(hits, mesh.Hit{Elem: o.Nx - 1 + ej*o.Nx, Info: EdgeXmax})
		}
	case "top":
		for ei := 0; ei < o.Nx; ei++ {
			hits = append(hits, mesh.Hit{Elem: ei + (o.Ny-1)*o.Nx, Info: EdgeYmax})
		}
	default:
		return nil, chk.Err("there are no edges named %q", name)
	}
	return
}

// Refine doubles the number of elements if any element is to be refined
func (o *QuadForest) Refine(decisions []int, minLevel, maxLevel int) error {
	o.Log = append(o.Log, "refine")
	if len(decisions) != o.Nx*o.Ny {
		return chk.Err("there must be %d decisions; got %d", o.Nx*o.Ny, len(decisions))
	}
	o.Refined = append(o.Refined, append([]int{}, decisions...))
	for _, d := range decisions {
		if d > 0 && o.Level < maxLevel {
			o.Nx, o.Ny = 2*o.Nx, 2*o.Ny
			o.Level++
			o.Offsets = nil
			return nil
		}
	}
	return nil
}

// CreateInterpolation computes bilinear weights from the node grid of src for the rows owned by
// op
func (o *QuadForest) CreateInterpolation(src mesh.Forest, op *mesh.Interp) (err error) {
	s, ok := src.(*QuadForest)
	if !ok {
		return chk.Err("cannot interpolate from %T", src)
	}
	if s.Lx != o.Lx || s.Ly != o.Ly {
		return chk.Err("cannot interpolate between domains of different sizes")
	}
	if op.Nrows != o.Nnodes() || op.Ncols != s.Nnodes() {
		return chk.Err("interpolation must be %d×%d; got %d×%d", o.Nnodes(), s.Nnodes(), op.Nrows, op.Ncols)
	}
	snx, sny := s.NodesX(), s.NodesY()
	for j := 0; j < o.NodesY(); j++ {
		for i := 0; i < o.NodesX(); i++ {
			if !op.Rows.Owns(o.Node(i, j)) {
				continue
			}
			x, y := o.X(i, j)
			si, xi := cell(x/o.Lx, snx)
			sj, eta := cell(y/o.Ly, sny)
			cols := []int{s.Node(si, sj), s.Node(si+1, sj), s.Node(si, sj+1), s.Node(si+1, sj+1)}
			weights := []float64{(1 - xi) * (1 - eta), xi * (1 - eta), (1 - xi) * eta, xi * eta}
			if err = op.Add(o.Node(i, j), cols, weights); err != nil {
				return
			}
		}
	}
	return
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// clone copies the forest keeping its process
func (o *QuadForest) clone() *QuadForest {
	c := *o
	c.Log, c.Refined, c.Offsets = nil, nil, nil
	return &c
}

// cell returns the cell of a grid with n nodes containing the relative coordinate r ∈ [0,1] and
// the local coordinate within the cell
func cell(r float64, n int) (k int, t float64) {
	h := 1.0 / float64(n-1)
	k = int(math.Floor(r / h))
	if k > n-2 {
		k = n - 2
	}
	if k < 0 {
		k = 0
	}
	t = (r - float64(k)*h) / h
	if math.Abs(t) < 1e-14 {
		t = 0
	}
	if math.Abs(t-1) < 1e-14 {
		t = 1
	}
	return
}
