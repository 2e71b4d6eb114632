// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mesh defines the mesh (forest) and discretization (assembler) collaborators
package mesh

// MaxLevel is the maximum refinement level of a forest: 30 node levels minus log2 of the
// maximum element order (8)
const MaxLevel = 27

// InterpType is the type of interpolation used by high-order meshes
type InterpType int

const (
	UniformPoints InterpType = iota // equally spaced nodes
	GaussLobatto                    // Gauss-Lobatto nodes
)

// Hit is an element touching a named region
type Hit struct {
	Elem int // local element index
	Info int // local face (3D) or edge (2D) index touching the region
}

// Forest is a hierarchical (quadtree or octree) mesh distributed over processes.
//  Note: Balance, Repartition and Refine are collective: all processes must call them
//        together, otherwise the group deadlocks
type Forest interface {
	Dim() int                                        // 2 for quadrants and 3 for octants
	Balance(corner bool) error                       // enforce 2:1 size ratio between neighbours
	Repartition() error                              // redistribute cells over processes
	Duplicate() (Forest, error)                      // copy with identical topology
	Coarsen() (Forest, error)                        // merge sibling cells
	MeshOrder() int                                  // polynomial order of elements
	InterpType() InterpType                          // node placement of high-order elements
	SetMeshOrder(order int, interp InterpType) error // set polynomial order
	NodeRange() []int                                // [nproc+1] node ownership offsets
	NodesWithName(name string) ([]int, error)        // global indices of nodes in named region
	ElemsWithName(name string) ([]Hit, error)        // local elements touching named region
	Refine(decisions []int, minLevel, maxLevel int) error

	// CreateInterpolation fills op with the weights interpolating values at the nodes of src
	// onto the nodes of this forest
	CreateInterpolation(src Forest, op *Interp) error
}

// Constitutive is the material model of an element
type Constitutive interface {
	DVOutputValue(index int, pt [3]float64) float64 // design-dependent output; e.g. density
}

// Assembler holds the degrees of freedom and physics of one discretization
type Assembler interface {
	VarsPerNode() int                   // degrees of freedom per node
	NumNodes() int                      // number of nodes owned by this process
	NumElements() int                   // number of local elements
	NewVec() []float64                  // zeroed vector with VarsPerNode*NumNodes entries
	ReorderVec(v []float64) error       // change ordering from node numbering to internal numbering
	ZeroVariables()                     // zero the state variables
	AssembleRes(res []float64) error    // residual of the physics operator at the current state
	AuxElements() *AuxElements          // currently installed auxiliary elements (may be nil)
	SetAuxElements(aux *AuxElements)    // install auxiliary elements; nil removes them
	Nodes() ([]float64, error)          // node coordinates
	SetNodes(X []float64) error         // set node coordinates
	Constitutive(elem int) Constitutive // material model of element or nil
}

// Discretization is the output of the callback that discretizes a forest
type Discretization struct {
	Assembler Assembler // finite element assembler
	Filter    Forest    // design-parametrization mesh; may be the forest itself
	VarMap    []int     // [nproc+1] ownership offsets of design variables (lagrange filter only)
	Indices   []int     // design-variable indices (lagrange filter only)
}

// Level holds one mesh level; level 0 is the finest
type Level struct {
	Forest    Forest    // analysis mesh
	Assembler Assembler // discretization on Forest
	Filter    Forest    // design-parametrization mesh
	VarMap    []int     // lagrange filter only
	Indices   []int     // lagrange filter only
}

// NewLevel returns a level from a forest and its discretization
func NewLevel(forest Forest, d *Discretization) *Level {
	return &Level{
		Forest:    forest,
		Assembler: d.Assembler,
		Filter:    d.Filter,
		VarMap:    d.VarMap,
		Indices:   d.Indices,
	}
}

// Traction holds a traction applied on one face (3D) or edge (2D) of an element
type Traction struct {
	Order  int       // mesh order of the element
	Face   int       // local face or edge index
	Values []float64 // traction components
}

// AuxElement pairs an element index with a traction
type AuxElement struct {
	Elem     int      // local element index
	Traction Traction // applied traction
}

// AuxElements holds auxiliary elements that add contributions to existing elements
type AuxElements struct {
	Items []AuxElement
}

// Add adds an auxiliary element
func (o *AuxElements) Add(elem int, t Traction) {
	o.Items = append(o.Items, AuxElement{elem, t})
}

// Len returns the number of auxiliary elements
func (o *AuxElements) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Items)
}
