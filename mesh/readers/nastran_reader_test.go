package readers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/meshconv/mesh"
)

// smallField lays out fields in 8 column NASTRAN small field format
func smallField(fields ...string) string {
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%-8s", f)
	}
	return strings.TrimRight(b.String(), " ")
}

// largeField lays out a large field line: 8 column name, 16 column data
func largeField(name string, fields ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s", name)
	for _, f := range fields {
		fmt.Fprintf(&b, "%-16s", f)
	}
	return strings.TrimRight(b.String(), " ")
}

func unitTetGrids() []string {
	return []string{
		smallField("GRID", "1", "", "0.", "0.", "0."),
		smallField("GRID", "2", "", "1.", "0.", "0."),
		smallField("GRID", "3", "", "0.", "1.", "0."),
		smallField("GRID", "4", "", "0.", "0.", "1."),
	}
}

func TestReadNastranSmallField(t *testing.T) {
	lines := []string{"$ exported by a preprocessor", "SOL 101", "CEND", "BEGIN BULK"}
	lines = append(lines, unitTetGrids()...)
	lines = append(lines,
		smallField("CTETRA", "1", "7", "1", "2", "3", "4"),
		smallField("CTRIA3", "2", "3", "1", "2", "3"),
		"ENDDATA",
		smallField("GRID", "99", "", "5.", "5.", "5."),
	)

	msh, err := ReadNastran(createTempFile(t, "tet.nas", strings.Join(lines, "\n")))
	require.NoError(t, err)

	assert.Len(t, msh.Points, 4)
	assert.Equal(t, []float64{0, 0, 1}, msh.Points[3])
	require.Len(t, msh.CellBlocks, 2)
	assert.Equal(t, mesh.Tet, msh.CellBlocks[0].Type)
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, msh.CellBlocks[0].Cells)
	assert.Equal(t, mesh.Triangle, msh.CellBlocks[1].Type)
	assert.Equal(t, [][]float64{{7}, {3}}, msh.CellData[mesh.PhysicalKey])
}

func TestReadNastranTet10Continuation(t *testing.T) {
	lines := []string{}
	for i := 1; i <= 10; i++ {
		lines = append(lines, smallField("GRID", fmt.Sprint(i), "", fmt.Sprint(i), "0.", "0."))
	}
	// elements may come before the grids they use
	lines = append([]string{
		smallField("CTETRA", "1", "1", "1", "2", "3", "4", "5", "6", "+T1"),
		smallField("+T1", "7", "8", "9", "10"),
	}, lines...)

	msh, err := ReadNastran(createTempFile(t, "tet10.nas", strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.Len(t, msh.CellBlocks, 1)
	assert.Equal(t, mesh.Tet10, msh.CellBlocks[0].Type)
	assert.Equal(t, [][]int{{0, 1, 2, 3, 4, 5, 6, 7, 9, 8}}, msh.CellBlocks[0].Cells)

	degraded := mesh.Degrade(msh)
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, degraded.CellBlocks[0].Cells)
}

func TestReadNastranFreeAndLargeField(t *testing.T) {
	content := strings.Join([]string{
		"GRID,1,,0.0,0.0,0.0",
		"GRID,2,,1.0,0.0,0.0",
		largeField("GRID*", "3", "", "0.0", "1.0", "*G3"),
		largeField("*G3", "0.0"),
		"GRID,4,,0.0,0.0,1.0-1",
		"CTETRA,10,2,1,2,3,4",
	}, "\n")

	msh, err := ReadNastran(createTempFile(t, "free.nas", content))
	require.NoError(t, err)
	require.Len(t, msh.Points, 4)
	assert.Equal(t, []float64{0, 1, 0}, msh.Points[2])
	assert.InDelta(t, 0.1, msh.Points[3][2], 1e-15)
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, msh.CellBlocks[0].Cells)
	assert.Equal(t, [][]float64{{2}}, msh.CellData[mesh.PhysicalKey])
}

func TestReadNastranErrors(t *testing.T) {
	_, err := ReadNastran(createTempFile(t, "empty.nas", "$ nothing here\nBEGIN BULK\nENDDATA\n"))
	assert.ErrorContains(t, err, "no GRID")

	content := strings.Join(append(unitTetGrids(), smallField("CTETRA", "1", "1", "1", "2", "3", "9")), "\n")
	_, err = ReadNastran(createTempFile(t, "dangling.nas", content))
	assert.ErrorContains(t, err, "undefined node 9")
}

func TestParseNastranReal(t *testing.T) {
	tests := map[string]float64{
		"":       0,
		"3":      3,
		"1.5":    1.5,
		"-.5":    -0.5,
		"1.5-3":  0.0015,
		"2.+4":   20000,
		"1.0D2":  100,
		"-1.2E1": -12,
	}
	for in, want := range tests {
		got, err := parseNastranReal(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-12, in)
	}
	_, err := parseNastranReal("abc")
	assert.Error(t, err)
}
