package mesh

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitTetMesh() *Mesh {
	m := NewMesh()
	m.AddNode(10, []float64{0, 0, 0})
	m.AddNode(20, []float64{1, 0, 0})
	m.AddNode(30, []float64{0, 1, 0})
	m.AddNode(40, []float64{0, 0, 1})
	return m
}

func TestElementTypeLookup(t *testing.T) {
	tests := []struct {
		et       ElementType
		name     string
		gmsh     int
		nodes    int
		dim      int
		quadratc bool
	}{
		{Point, "vertex", 15, 1, 0, false},
		{Line, "line", 1, 2, 1, false},
		{Triangle, "triangle", 2, 3, 2, false},
		{Triangle6, "triangle6", 9, 6, 2, true},
		{Tet, "tetra", 4, 4, 3, false},
		{Tet10, "tetra10", 11, 10, 3, true},
		{Hex, "hexahedron", 5, 8, 3, false},
		{Prism, "wedge", 6, 6, 3, false},
		{Pyramid, "pyramid", 7, 5, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.et.String())
			assert.Equal(t, tt.gmsh, tt.et.GmshType())
			assert.Equal(t, tt.nodes, tt.et.GetNumNodes())
			assert.Equal(t, tt.dim, tt.et.GetDimension())
			assert.Equal(t, tt.quadratc, tt.et.IsQuadratic())

			byName, ok := ElementTypeFromName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.et, byName)
			byGmsh, ok := ElementTypeFromGmsh(tt.gmsh)
			require.True(t, ok)
			assert.Equal(t, tt.et, byGmsh)
		})
	}
	_, ok := ElementTypeFromGmsh(999)
	assert.False(t, ok)
	assert.Equal(t, "unknown", Unknown.String())
}

func TestAddCellMapsNodeIDs(t *testing.T) {
	m := unitTetMesh()
	require.NoError(t, m.AddCell(Tet, []int{10, 20, 30, 40}, 5, 1))
	require.NoError(t, m.AddCell(Tet, []int{40, 30, 20, 10}, 5, 1))
	require.NoError(t, m.AddCell(Triangle, []int{10, 20, 30}, 2, 3))

	require.Len(t, m.CellBlocks, 2)
	assert.Equal(t, [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}}, m.CellBlocks[0].Cells)
	assert.Equal(t, [][]float64{{5, 5}, {2}}, m.CellData[PhysicalKey])
	assert.Equal(t, [][]float64{{1, 1}, {3}}, m.CellData[GeometricalKey])
	assert.Equal(t, 3, m.NumCells())
	assert.Equal(t, []ElementType{Triangle, Tet}, m.CellTypes())
	require.NoError(t, m.Validate())
}

func TestAddCellErrors(t *testing.T) {
	m := unitTetMesh()
	assert.Error(t, m.AddCell(Tet, []int{10, 20, 30}, 0, 0))
	assert.Error(t, m.AddCell(Tet, []int{10, 20, 30, 99}, 0, 0))
}

func TestValidate(t *testing.T) {
	m := unitTetMesh()
	m.CellBlocks = []CellBlock{{Type: Tet, Cells: [][]int{{0, 1, 2, 4}}}}
	assert.ErrorContains(t, m.Validate(), "out of range")

	m.CellBlocks = []CellBlock{{Type: Tet, Cells: [][]int{{0, 1, 2}}}}
	assert.ErrorContains(t, m.Validate(), "expected 4 vertices")

	m.CellBlocks = []CellBlock{{Type: Tet, Cells: [][]int{{0, 1, 2, 3}}}}
	m.CellData["weights"] = [][]float64{{1, 2}}
	assert.ErrorContains(t, m.Validate(), "weights")
}

func TestTetVolume(t *testing.T) {
	a, b, c, d := r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}
	assert.InDelta(t, 1.0/6, TetVolume(a, b, c, d), 1e-15)
	assert.InDelta(t, -1.0/6, TetVolume(a, c, b, d), 1e-15)
}

func TestComputeStatistics(t *testing.T) {
	m := unitTetMesh()
	require.NoError(t, m.AddCell(Tet, []int{10, 20, 30, 40}, 0, 0))
	require.NoError(t, m.AddCell(Tet, []int{10, 30, 20, 40}, 0, 0))
	require.NoError(t, m.AddCell(Triangle, []int{10, 20, 30}, 0, 0))

	st := m.ComputeStatistics()
	assert.Equal(t, 4, st.NumPoints)
	assert.Equal(t, 3, st.NumCells)
	assert.Equal(t, map[string]int{"tetra": 2, "triangle": 1}, st.CellCounts)
	assert.Equal(t, 1, st.InvertedTets)
	assert.True(t, math.Abs(st.TetVolume-1.0/3) < 1e-12)
	assert.Equal(t, [3]float64{0, 0, 0}, st.BoundsMin)
	assert.Equal(t, [3]float64{1, 1, 1}, st.BoundsMax)

	var buf bytes.Buffer
	st.PrintStatistics(&buf)
	assert.Contains(t, buf.String(), "tetra: 2")
	assert.Contains(t, buf.String(), "Inverted tets: 1")
}

func TestComputeStatisticsEmpty(t *testing.T) {
	st := NewMesh().ComputeStatistics()
	assert.Zero(t, st.NumPoints)
	assert.Equal(t, [3]float64{}, st.BoundsMin)
}
