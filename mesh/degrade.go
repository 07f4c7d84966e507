package mesh

// Degrade returns a copy of m where every Tet10 block is replaced by a Tet
// block made of the first four (corner) vertices of each cell. Mid-edge nodes
// are dropped, not re-derived; the points stay in place so cell data and
// point data line up exactly as before. Other blocks pass through. The input
// mesh is not modified. Cells too short to hold the corners are copied
// unchanged and fail Validate on the result.
func Degrade(m *Mesh) *Mesh {
	out := &Mesh{
		Points:        m.Points,
		CellBlocks:    make([]CellBlock, len(m.CellBlocks)),
		PointData:     m.PointData,
		CellData:      m.CellData,
		FieldData:     m.FieldData,
		FormatVersion: m.FormatVersion,
		IsBinary:      m.IsBinary,
		DataSize:      m.DataSize,
		NodeIDMap:     m.NodeIDMap,
	}
	for i, b := range m.CellBlocks {
		if b.Type != Tet10 {
			out.CellBlocks[i] = b
			continue
		}
		corners := Tet10.GetCornerNodes()
		cells := make([][]int, len(b.Cells))
		for j, cell := range b.Cells {
			if len(cell) < len(corners) {
				// left as is so Validate reports the short row
				cells[j] = cell
				continue
			}
			row := make([]int, len(corners))
			for k, c := range corners {
				row[k] = cell[c]
			}
			cells[j] = row
		}
		out.CellBlocks[i] = CellBlock{Type: Tet, Cells: cells}
	}
	return out
}

// HasQuadratic reports whether any block uses a second order element
func (m *Mesh) HasQuadratic() bool {
	for _, b := range m.CellBlocks {
		if b.Type.IsQuadratic() {
			return true
		}
	}
	return false
}
