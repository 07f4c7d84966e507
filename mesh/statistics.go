package mesh

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Statistics summarizes a mesh for reports and the inspect command
type Statistics struct {
	NumPoints    int            `json:"num_points"`
	NumCells     int            `json:"num_cells"`
	CellCounts   map[string]int `json:"cell_counts"`
	TetVolume    float64        `json:"tet_volume"`
	InvertedTets int            `json:"inverted_tets"`
	BoundsMin    [3]float64     `json:"bounds_min"`
	BoundsMax    [3]float64     `json:"bounds_max"`
}

// ComputeStatistics walks the mesh once and collects counts, bounds and the
// signed volume of linear and quadratic tetrahedra (corner nodes only)
func (m *Mesh) ComputeStatistics() Statistics {
	st := Statistics{
		NumPoints:  len(m.Points),
		NumCells:   m.NumCells(),
		CellCounts: make(map[string]int),
	}
	for i := 0; i < 3; i++ {
		st.BoundsMin[i] = math.Inf(1)
		st.BoundsMax[i] = math.Inf(-1)
	}
	for _, p := range m.Points {
		for i := 0; i < 3 && i < len(p); i++ {
			st.BoundsMin[i] = math.Min(st.BoundsMin[i], p[i])
			st.BoundsMax[i] = math.Max(st.BoundsMax[i], p[i])
		}
	}
	if len(m.Points) == 0 {
		st.BoundsMin, st.BoundsMax = [3]float64{}, [3]float64{}
	}

	for _, b := range m.CellBlocks {
		st.CellCounts[b.Type.String()] += len(b.Cells)
		if b.Type != Tet && b.Type != Tet10 {
			continue
		}
		for _, cell := range b.Cells {
			v := TetVolume(m.vec(cell[0]), m.vec(cell[1]), m.vec(cell[2]), m.vec(cell[3]))
			if v < 0 {
				st.InvertedTets++
			}
			st.TetVolume += math.Abs(v)
		}
	}
	return st
}

// TetVolume returns the signed volume of the tetrahedron (a, b, c, d);
// positive for the right-handed vertex ordering Gmsh uses
func TetVolume(a, b, c, d r3.Vec) float64 {
	ab, ac, ad := r3.Sub(b, a), r3.Sub(c, a), r3.Sub(d, a)
	return r3.Dot(ab, r3.Cross(ac, ad)) / 6
}

func (m *Mesh) vec(i int) r3.Vec {
	p := m.Points[i]
	var v r3.Vec
	if len(p) > 0 {
		v.X = p[0]
	}
	if len(p) > 1 {
		v.Y = p[1]
	}
	if len(p) > 2 {
		v.Z = p[2]
	}
	return v
}

// PrintStatistics prints mesh statistics
func (st Statistics) PrintStatistics(w io.Writer) {
	fmt.Fprintf(w, "Mesh Statistics:\n")
	fmt.Fprintf(w, "  Points: %d\n", st.NumPoints)
	fmt.Fprintf(w, "  Cells: %d\n", st.NumCells)
	fmt.Fprintf(w, "  Cell types:\n")
	for _, et := range sortedNames(st.CellCounts) {
		fmt.Fprintf(w, "    %s: %d\n", et, st.CellCounts[et])
	}
	fmt.Fprintf(w, "  Bounds: [%g %g %g] - [%g %g %g]\n",
		st.BoundsMin[0], st.BoundsMin[1], st.BoundsMin[2],
		st.BoundsMax[0], st.BoundsMax[1], st.BoundsMax[2])
	if st.TetVolume > 0 {
		fmt.Fprintf(w, "  Tet volume: %g\n", st.TetVolume)
		fmt.Fprintf(w, "  Inverted tets: %d\n", st.InvertedTets)
	}
}

func sortedNames(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
