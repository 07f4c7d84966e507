package writers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/notargets/meshconv/mesh"
)

// WriteGmsh22File writes the mesh to filename in ASCII MSH 2.2 format
func WriteGmsh22File(filename string, msh *mesh.Mesh) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteGmsh22(file, msh)
}

// WriteGmsh22 writes the mesh in ASCII MSH 2.2 format. Points are numbered
// from 1 in order; elements are numbered from 1 in block order and carry two
// tags, physical and elementary, taken from the gmsh cell data. Point data
// arrays are written as $NodeData views.
func WriteGmsh22(w io.Writer, msh *mesh.Mesh) error {
	if err := msh.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid mesh: %w", err)
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "$MeshFormat\n2.2 0 8\n$EndMeshFormat\n")

	if len(msh.FieldData) > 0 {
		writePhysicalNames(bw, msh.FieldData)
	}

	fmt.Fprintf(bw, "$Nodes\n%d\n", len(msh.Points))
	for i, p := range msh.Points {
		fmt.Fprintf(bw, "%d %s %s %s\n", i+1, formatReal(coord(p, 0)), formatReal(coord(p, 1)), formatReal(coord(p, 2)))
	}
	fmt.Fprintf(bw, "$EndNodes\n")

	if err := writeElements(bw, msh); err != nil {
		return err
	}

	for _, name := range sortedKeys(msh.PointData) {
		writeNodeData(bw, name, msh.PointData[name])
	}

	return bw.Flush()
}

func writePhysicalNames(bw *bufio.Writer, names map[string]mesh.PhysicalName) {
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := names[keys[i]], names[keys[j]]
		if a.Dimension != b.Dimension {
			return a.Dimension < b.Dimension
		}
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(bw, "$PhysicalNames\n%d\n", len(keys))
	for _, k := range keys {
		fmt.Fprintf(bw, "%d %d \"%s\"\n", names[k].Dimension, names[k].Tag, k)
	}
	fmt.Fprintf(bw, "$EndPhysicalNames\n")
}

func writeElements(bw *bufio.Writer, msh *mesh.Mesh) error {
	physical := msh.CellData[mesh.PhysicalKey]
	geometrical := msh.CellData[mesh.GeometricalKey]

	fmt.Fprintf(bw, "$Elements\n%d\n", msh.NumCells())
	elemID := 1
	for bi, b := range msh.CellBlocks {
		gmshType := b.Type.GmshType()
		if gmshType == 0 {
			return fmt.Errorf("block %d: cell type %s has no Gmsh equivalent", bi, b.Type)
		}
		for ci, cell := range b.Cells {
			fmt.Fprintf(bw, "%d %d 2 %d %d", elemID, gmshType,
				tagAt(physical, bi, ci), tagAt(geometrical, bi, ci))
			for _, v := range cell {
				fmt.Fprintf(bw, " %d", v+1)
			}
			bw.WriteByte('\n')
			elemID++
		}
	}
	fmt.Fprintf(bw, "$EndElements\n")
	return nil
}

func writeNodeData(bw *bufio.Writer, name string, data [][]float64) {
	numComp := 0
	if len(data) > 0 {
		numComp = len(data[0])
	}
	fmt.Fprintf(bw, "$NodeData\n1\n\"%s\"\n1\n0.0\n3\n0\n%d\n%d\n", name, numComp, len(data))
	for i, row := range data {
		bw.WriteString(strconv.Itoa(i + 1))
		for _, v := range row {
			bw.WriteByte(' ')
			bw.WriteString(formatReal(v))
		}
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "$EndNodeData\n")
}

func tagAt(data [][]float64, block, cell int) int {
	if block < len(data) && cell < len(data[block]) {
		return int(data[block][cell])
	}
	return 0
}

func coord(p []float64, i int) float64 {
	if i < len(p) {
		return p[i]
	}
	return 0
}

func formatReal(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sortedKeys(m map[string][][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
