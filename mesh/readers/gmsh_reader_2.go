package readers

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/notargets/meshconv/mesh"
)

// ReadGmsh22 reads a Gmsh MSH file format version 2.2
func ReadGmsh22(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	msh := mesh.NewMesh()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "$MeshFormat":
			if err := readMeshFormat(scanner, msh); err != nil {
				return nil, err
			}

		case "$PhysicalNames":
			if err := readPhysicalNames(scanner, msh); err != nil {
				return nil, err
			}

		case "$Nodes":
			if err := readNodes22(scanner, msh); err != nil {
				return nil, err
			}

		case "$Elements":
			if err := readElements22(scanner, msh); err != nil {
				return nil, err
			}

		case "$NodeData":
			if err := readNodeData22(scanner, msh); err != nil {
				return nil, err
			}

		case "$Periodic", "$ElementData", "$ElementNodeData":
			if err := skipSection(scanner, "$End"+line[1:]); err != nil {
				return nil, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %v", err)
	}

	return msh, nil
}

// readNodes22 reads nodes in v2.2 format
func readNodes22(scanner *bufio.Scanner, msh *mesh.Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in Nodes")
	}

	numNodes, err := atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return fmt.Errorf("Nodes count: %w", err)
	}
	msh.Points = make([][]float64, 0, numNodes)

	for i := 0; i < numNodes; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading nodes")
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) < 4 {
			return fmt.Errorf("invalid node line: %s", scanner.Text())
		}

		nodeID, err := atoi(parts[0])
		if err != nil {
			return fmt.Errorf("node line %d: %w", i+1, err)
		}
		coords, err := parseCoords(parts[1:])
		if err != nil {
			return fmt.Errorf("node %d: %w", nodeID, err)
		}

		msh.AddNode(nodeID, coords)
	}

	return skipSection(scanner, "$EndNodes")
}

// readElements22 reads elements in v2.2 format:
// elm-number elm-type number-of-tags < tag > ... node-number-list
func readElements22(scanner *bufio.Scanner, msh *mesh.Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in Elements")
	}

	numElements, err := atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return fmt.Errorf("Elements count: %w", err)
	}

	for i := 0; i < numElements; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading elements")
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) < 3 {
			return fmt.Errorf("invalid element line: %s", scanner.Text())
		}

		elemID, _ := atoi(parts[0])
		gmshType, err := atoi(parts[1])
		if err != nil {
			return fmt.Errorf("element %d type: %w", elemID, err)
		}
		numTags, err := atoi(parts[2])
		if err != nil || len(parts) < 3+numTags {
			return fmt.Errorf("element %d: invalid element tags", elemID)
		}

		// Read tags: physical, elementary, then partition info we ignore
		tags := make([]int, 2)
		for j := 0; j < numTags && j < 2; j++ {
			tags[j], _ = atoi(parts[3+j])
		}

		// Map element type
		etype, ok := mesh.ElementTypeFromGmsh(gmshType)
		if !ok {
			// Skip unknown element types
			continue
		}

		expectedNodes := etype.GetNumNodes()
		nodeStart := 3 + numTags
		if len(parts) < nodeStart+expectedNodes {
			return fmt.Errorf("element %d: expected %d nodes, got %d",
				elemID, expectedNodes, len(parts)-nodeStart)
		}

		nodeIDs := make([]int, expectedNodes)
		for j := 0; j < expectedNodes; j++ {
			if nodeIDs[j], err = atoi(parts[nodeStart+j]); err != nil {
				return fmt.Errorf("element %d: %w", elemID, err)
			}
		}

		if err := msh.AddCell(etype, nodeIDs, tags[0], tags[1]); err != nil {
			return fmt.Errorf("element %d: %w", elemID, err)
		}
	}

	return skipSection(scanner, "$EndElements")
}

// readNodeData22 reads one $NodeData view into PointData:
// string tags (name first), real tags, integer tags (step, ncomp, nnodes),
// then "node-id value..." lines
func readNodeData22(scanner *bufio.Scanner, msh *mesh.Mesh) error {
	readTags := func() ([]string, error) {
		if !scanner.Scan() {
			return nil, fmt.Errorf("unexpected EOF in NodeData")
		}
		n, err := atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return nil, fmt.Errorf("NodeData tag count: %w", err)
		}
		tags := make([]string, n)
		for i := range tags {
			if !scanner.Scan() {
				return nil, fmt.Errorf("unexpected EOF in NodeData tags")
			}
			tags[i] = strings.TrimSpace(scanner.Text())
		}
		return tags, nil
	}

	stringTags, err := readTags()
	if err != nil {
		return err
	}
	if _, err = readTags(); err != nil {
		return err
	}
	intTags, err := readTags()
	if err != nil {
		return err
	}
	if len(intTags) < 3 {
		return fmt.Errorf("NodeData needs 3 integer tags, got %d", len(intTags))
	}

	name := "NodeData"
	if len(stringTags) > 0 {
		name = strings.Trim(stringTags[0], "\"")
	}
	numComp, err := atoi(intTags[1])
	if err != nil {
		return fmt.Errorf("NodeData components: %w", err)
	}
	numValues, err := atoi(intTags[2])
	if err != nil {
		return fmt.Errorf("NodeData count: %w", err)
	}

	data := make([][]float64, len(msh.Points))
	for i := 0; i < numValues; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading NodeData %q", name)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 1+numComp {
			return fmt.Errorf("NodeData %q: short line %q", name, scanner.Text())
		}
		nodeID, err := atoi(fields[0])
		if err != nil {
			return fmt.Errorf("NodeData %q: %w", name, err)
		}
		idx, ok := msh.GetNodeIndex(nodeID)
		if !ok {
			return fmt.Errorf("NodeData %q references undefined node %d", name, nodeID)
		}
		row := make([]float64, numComp)
		for k := range row {
			if row[k], err = atof(fields[1+k]); err != nil {
				return fmt.Errorf("NodeData %q: %w", name, err)
			}
		}
		data[idx] = row
	}
	// Nodes absent from the view get zero rows
	for i := range data {
		if data[i] == nil {
			data[i] = make([]float64, numComp)
		}
	}
	msh.PointData[name] = data

	return skipSection(scanner, "$EndNodeData")
}
