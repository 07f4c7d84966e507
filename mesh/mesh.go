package mesh

import (
	"fmt"
	"sort"
)

// CellBlock is a run of cells sharing one element type
type CellBlock struct {
	Type  ElementType
	Cells [][]int // Cell to point connectivity [ncells][nverts_per_cell], 0-based
}

// PhysicalName is one entry of a $PhysicalNames section
type PhysicalName struct {
	Tag       int
	Dimension int
}

// Mesh is a points + cell blocks mesh with optional auxiliary data
type Mesh struct {
	// Geometry
	Points [][]float64 // Point coordinates [npoints][3]

	// Cells, grouped into blocks in file order
	CellBlocks []CellBlock

	// Auxiliary data
	PointData map[string][][]float64 // name -> [npoints][ncomponents]
	CellData  map[string][][]float64 // name -> [nblocks][ncells]
	FieldData map[string]PhysicalName

	// Format metadata from the source file
	FormatVersion string
	IsBinary      bool
	DataSize      int

	// Node ID mapping used while reading (file ID -> point index)
	NodeIDMap map[int]int
}

// Cell data keys used for Gmsh element tags
const (
	PhysicalKey    = "gmsh:physical"
	GeometricalKey = "gmsh:geometrical"
)

// NewMesh creates an empty mesh
func NewMesh() *Mesh {
	return &Mesh{
		PointData: make(map[string][][]float64),
		CellData:  make(map[string][][]float64),
		FieldData: make(map[string]PhysicalName),
		NodeIDMap: make(map[int]int),
	}
}

// AddNode appends a point and records its file ID
func (m *Mesh) AddNode(nodeID int, coords []float64) {
	m.NodeIDMap[nodeID] = len(m.Points)
	m.Points = append(m.Points, coords)
}

// GetNodeIndex returns the point index for a file node ID
func (m *Mesh) GetNodeIndex(nodeID int) (int, bool) {
	idx, ok := m.NodeIDMap[nodeID]
	return idx, ok
}

// AddCell appends a cell given in file node IDs. Consecutive cells of the
// same type share a block; tag values land in the Gmsh cell data arrays.
func (m *Mesh) AddCell(etype ElementType, nodeIDs []int, physical, geometrical int) error {
	if len(nodeIDs) != etype.GetNumNodes() {
		return fmt.Errorf("%s cell: expected %d nodes, got %d",
			etype, etype.GetNumNodes(), len(nodeIDs))
	}
	verts := make([]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idx, ok := m.GetNodeIndex(id)
		if !ok {
			return fmt.Errorf("%s cell references undefined node %d", etype, id)
		}
		verts[i] = idx
	}
	m.appendCell(etype, verts, float64(physical), float64(geometrical))
	return nil
}

func (m *Mesh) appendCell(etype ElementType, verts []int, physical, geometrical float64) {
	nb := len(m.CellBlocks)
	if nb == 0 || m.CellBlocks[nb-1].Type != etype {
		m.CellBlocks = append(m.CellBlocks, CellBlock{Type: etype})
		m.CellData[PhysicalKey] = append(m.CellData[PhysicalKey], nil)
		m.CellData[GeometricalKey] = append(m.CellData[GeometricalKey], nil)
		nb++
	}
	b := &m.CellBlocks[nb-1]
	b.Cells = append(b.Cells, verts)
	m.CellData[PhysicalKey][nb-1] = append(m.CellData[PhysicalKey][nb-1], physical)
	m.CellData[GeometricalKey][nb-1] = append(m.CellData[GeometricalKey][nb-1], geometrical)
}

// NumCells returns the total number of cells over all blocks
func (m *Mesh) NumCells() int {
	n := 0
	for _, b := range m.CellBlocks {
		n += len(b.Cells)
	}
	return n
}

// CellTypes returns the distinct cell types in the mesh, sorted
func (m *Mesh) CellTypes() []ElementType {
	seen := make(map[ElementType]bool)
	var types []ElementType
	for _, b := range m.CellBlocks {
		if !seen[b.Type] {
			seen[b.Type] = true
			types = append(types, b.Type)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Validate checks that every cell references existing points and that the
// per-block cell data arrays line up with the blocks
func (m *Mesh) Validate() error {
	np := len(m.Points)
	for bi, b := range m.CellBlocks {
		want := b.Type.GetNumNodes()
		for ci, cell := range b.Cells {
			if len(cell) != want {
				return fmt.Errorf("block %d (%s) cell %d: expected %d vertices, got %d",
					bi, b.Type, ci, want, len(cell))
			}
			for _, v := range cell {
				if v < 0 || v >= np {
					return fmt.Errorf("block %d (%s) cell %d: vertex index %d out of range [0,%d)",
						bi, b.Type, ci, v, np)
				}
			}
		}
	}
	for name, blocks := range m.CellData {
		if len(blocks) != len(m.CellBlocks) {
			return fmt.Errorf("cell data %q has %d blocks, mesh has %d",
				name, len(blocks), len(m.CellBlocks))
		}
		for bi, vals := range blocks {
			if len(vals) != len(m.CellBlocks[bi].Cells) {
				return fmt.Errorf("cell data %q block %d: %d values for %d cells",
					name, bi, len(vals), len(m.CellBlocks[bi].Cells))
			}
		}
	}
	for name, vals := range m.PointData {
		if len(vals) != np {
			return fmt.Errorf("point data %q has %d rows, mesh has %d points", name, len(vals), np)
		}
	}
	return nil
}
