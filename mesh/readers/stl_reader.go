package readers

import (
	"fmt"
	"os"

	"github.com/unixpickle/model3d/model3d"

	"github.com/notargets/meshconv/mesh"
)

// ReadSTL reads an ASCII or binary STL surface into a single triangle block.
// STL repeats the vertices of every facet, so coincident vertices are merged
// into one point.
func ReadSTL(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	triangles, err := model3d.ReadSTL(file)
	if err != nil {
		return nil, fmt.Errorf("decoding STL: %w", err)
	}
	if len(triangles) == 0 {
		return nil, fmt.Errorf("STL contains no facets")
	}

	msh := mesh.NewMesh()
	pointIndex := make(map[model3d.Coord3D]int)
	for _, tri := range triangles {
		ids := make([]int, 3)
		for k, c := range tri {
			id, ok := pointIndex[c]
			if !ok {
				id = len(pointIndex) + 1
				pointIndex[c] = id
				msh.AddNode(id, []float64{c.X, c.Y, c.Z})
			}
			ids[k] = id
		}
		if err := msh.AddCell(mesh.Triangle, ids, 0, 0); err != nil {
			return nil, err
		}
	}
	return msh, nil
}
