package mesh

// ElementType represents different finite element types

type ElementType int

const (
	Unknown ElementType = iota
	// 0D elements
	Point
	// 1D elements
	Line
	Line3 // 3-node line (quadratic)
	// 2D elements
	Triangle
	Quad
	Triangle6 // 6-node triangle (quadratic)
	Quad8     // 8-node quad (quadratic)
	Quad9     // 9-node quad
	// 3D elements
	Tet
	Hex
	Prism
	Pyramid
	Tet10     // 10-node tetrahedron (quadratic)
	Hex20     // 20-node hexahedron (quadratic)
	Hex27     // 27-node hexahedron
	Prism15   // 15-node prism (quadratic)
	Pyramid13 // 13-node pyramid
)

type elementInfo struct {
	name     string // cell type name used in the mesh exchange world ("tetra", "tetra10")
	nodes    int
	dim      int
	gmshType int
}

var elementTable = map[ElementType]elementInfo{
	Point:     {"vertex", 1, 0, 15},
	Line:      {"line", 2, 1, 1},
	Line3:     {"line3", 3, 1, 8},
	Triangle:  {"triangle", 3, 2, 2},
	Quad:      {"quad", 4, 2, 3},
	Triangle6: {"triangle6", 6, 2, 9},
	Quad8:     {"quad8", 8, 2, 16},
	Quad9:     {"quad9", 9, 2, 10},
	Tet:       {"tetra", 4, 3, 4},
	Hex:       {"hexahedron", 8, 3, 5},
	Prism:     {"wedge", 6, 3, 6},
	Pyramid:   {"pyramid", 5, 3, 7},
	Tet10:     {"tetra10", 10, 3, 11},
	Hex20:     {"hexahedron20", 20, 3, 17},
	Hex27:     {"hexahedron27", 27, 3, 12},
	Prism15:   {"wedge15", 15, 3, 18},
	Pyramid13: {"pyramid13", 13, 3, 19},
}

var (
	byName     = make(map[string]ElementType)
	byGmshType = make(map[int]ElementType)
)

func init() {
	for et, info := range elementTable {
		byName[info.name] = et
		byGmshType[info.gmshType] = et
	}
}

// String returns the cell type name, e.g. "tetra10"
func (e ElementType) String() string {
	if info, ok := elementTable[e]; ok {
		return info.name
	}
	return "unknown"
}

// GetDimension returns the spatial dimension of the element
func (e ElementType) GetDimension() int {
	if info, ok := elementTable[e]; ok {
		return info.dim
	}
	return -1
}

// GetNumNodes returns the number of nodes for each element type
func (e ElementType) GetNumNodes() int {
	return elementTable[e].nodes
}

// GmshType returns the Gmsh element type number, 0 if there is none
func (e ElementType) GmshType() int {
	return elementTable[e].gmshType
}

// IsQuadratic reports whether the element carries mid-side nodes
func (e ElementType) IsQuadratic() bool {
	switch e {
	case Line3, Triangle6, Quad8, Quad9, Tet10, Hex20, Hex27, Prism15, Pyramid13:
		return true
	}
	return false
}

// GetCornerNodes returns the indices of corner nodes for higher-order elements
func (e ElementType) GetCornerNodes() []int {
	switch e {
	case Line3:
		return []int{0, 1}
	case Triangle6:
		return []int{0, 1, 2}
	case Quad8, Quad9:
		return []int{0, 1, 2, 3}
	case Tet10:
		return []int{0, 1, 2, 3}
	case Hex20, Hex27:
		return []int{0, 1, 2, 3, 4, 5, 6, 7}
	case Prism15:
		return []int{0, 1, 2, 3, 4, 5}
	case Pyramid13:
		return []int{0, 1, 2, 3, 4}
	default:
		n := e.GetNumNodes()
		nodes := make([]int, n)
		for i := 0; i < n; i++ {
			nodes[i] = i
		}
		return nodes
	}
}

// ElementTypeFromName looks up a cell type by name ("tetra", "triangle", ...)
func ElementTypeFromName(name string) (ElementType, bool) {
	et, ok := byName[name]
	return et, ok
}

// ElementTypeFromGmsh maps a Gmsh element type number to an ElementType
func ElementTypeFromGmsh(gmshType int) (ElementType, bool) {
	et, ok := byGmshType[gmshType]
	return et, ok
}
