package readers

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/notargets/meshconv/mesh"
)

// entityKey identifies a geometric entity by dimension and tag
type entityKey struct {
	dim, tag int
}

// ReadGmsh4 reads an ASCII Gmsh 4.1 file. Elements take their physical tag
// from the first physical group of their entity and their geometrical tag
// from the entity itself.
func ReadGmsh4(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	msh := mesh.NewMesh()
	physicalTags := make(map[entityKey][]int)

	for scanner.Scan() {
		section := strings.TrimSpace(scanner.Text())
		var err error
		switch section {
		case "":
			continue
		case "$MeshFormat":
			err = readMeshFormat(scanner, msh)
			if err == nil && msh.FormatVersion != "4.1" {
				err = fmt.Errorf("MSH %s is not supported, only 4.1", msh.FormatVersion)
			}
		case "$PhysicalNames":
			err = readPhysicalNames(scanner, msh)
		case "$Entities":
			err = readEntities4(scanner, physicalTags)
		case "$Nodes":
			err = readNodes4(scanner, msh)
		case "$Elements":
			err = readElements4(scanner, msh, physicalTags)
		case "$PartitionedEntities", "$Periodic", "$GhostElements",
			"$NodeData", "$ElementData", "$ElementNodeData":
			err = skipSection(scanner, "$End"+section[1:])
		}
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %v", err)
	}
	return msh, nil
}

// readEntities4 keeps only the physical tags of each entity. Point entities
// list X Y Z before their physical tags, the others a bounding box.
func readEntities4(scanner *bufio.Scanner, physicalTags map[entityKey][]int) error {
	counts, err := nextFields(scanner, "$Entities")
	if err != nil {
		return err
	}
	if len(counts) < 4 {
		return fmt.Errorf("$Entities: want 4 counts, got %q", counts)
	}

	for dim := 0; dim < 4; dim++ {
		n, err := atoi(counts[dim])
		if err != nil {
			return fmt.Errorf("$Entities: %w", err)
		}
		physPos := 7
		if dim == 0 {
			physPos = 4
		}
		for i := 0; i < n; i++ {
			fields, err := nextFields(scanner, "$Entities")
			if err != nil {
				return err
			}
			if len(fields) <= physPos {
				return fmt.Errorf("$Entities: short %dD entity line %q", dim, strings.Join(fields, " "))
			}
			tag, err := atoi(fields[0])
			if err != nil {
				return fmt.Errorf("$Entities: %w", err)
			}
			numPhys, _ := atoi(fields[physPos])
			numPhys = max(numPhys, 0)
			tags := make([]int, 0, numPhys)
			for _, f := range fields[physPos+1 : min(len(fields), physPos+1+numPhys)] {
				v, _ := atoi(f)
				tags = append(tags, v)
			}
			physicalTags[entityKey{dim, tag}] = tags
		}
	}
	return skipSection(scanner, "$EndEntities")
}

// readNodes4 reads the entity blocks of the $Nodes section: a block header
// "dim tag parametric count", then count tags, then count coordinate lines
func readNodes4(scanner *bufio.Scanner, msh *mesh.Mesh) error {
	header, err := nextFields(scanner, "$Nodes")
	if err != nil {
		return err
	}
	if len(header) < 4 {
		return fmt.Errorf("$Nodes: want 4 header values, got %q", header)
	}
	numBlocks, err := atoi(header[0])
	if err != nil {
		return fmt.Errorf("$Nodes: %w", err)
	}

	for b := 0; b < numBlocks; b++ {
		blockHeader, err := nextFields(scanner, "$Nodes")
		if err != nil {
			return err
		}
		if len(blockHeader) < 4 {
			return fmt.Errorf("$Nodes: bad block header %q", blockHeader)
		}
		count, err := atoi(blockHeader[3])
		if err != nil {
			return fmt.Errorf("$Nodes block %d: %w", b, err)
		}

		ids := make([]int, count)
		for j := range ids {
			fields, err := nextFields(scanner, "$Nodes")
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return fmt.Errorf("$Nodes block %d: blank node tag line", b)
			}
			if ids[j], err = atoi(fields[0]); err != nil {
				return fmt.Errorf("$Nodes block %d: %w", b, err)
			}
		}
		// parametric coordinates, if present, follow x y z and are dropped
		for _, id := range ids {
			fields, err := nextFields(scanner, "$Nodes")
			if err != nil {
				return err
			}
			coords, err := parseCoords(fields)
			if err != nil {
				return fmt.Errorf("node %d: %w", id, err)
			}
			msh.AddNode(id, coords)
		}
	}
	return skipSection(scanner, "$EndNodes")
}

// readElements4 reads the entity blocks of the $Elements section: a block
// header "dim tag type count", then one "id node..." line per element.
// Blocks of unknown element types are skipped.
func readElements4(scanner *bufio.Scanner, msh *mesh.Mesh, physicalTags map[entityKey][]int) error {
	header, err := nextFields(scanner, "$Elements")
	if err != nil {
		return err
	}
	if len(header) < 4 {
		return fmt.Errorf("$Elements: want 4 header values, got %q", header)
	}
	numBlocks, err := atoi(header[0])
	if err != nil {
		return fmt.Errorf("$Elements: %w", err)
	}

	for b := 0; b < numBlocks; b++ {
		blockHeader, err := nextFields(scanner, "$Elements")
		if err != nil {
			return err
		}
		if len(blockHeader) < 4 {
			return fmt.Errorf("$Elements: bad block header %q", blockHeader)
		}
		entityDim, _ := atoi(blockHeader[0])
		entityTag, _ := atoi(blockHeader[1])
		gmshType, _ := atoi(blockHeader[2])
		count, err := atoi(blockHeader[3])
		if err != nil {
			return fmt.Errorf("$Elements block %d: %w", b, err)
		}

		etype, known := mesh.ElementTypeFromGmsh(gmshType)
		physical := 0
		if tags := physicalTags[entityKey{entityDim, entityTag}]; len(tags) > 0 {
			physical = tags[0]
		}
		numNodes := etype.GetNumNodes()

		for j := 0; j < count; j++ {
			fields, err := nextFields(scanner, "$Elements")
			if err != nil {
				return err
			}
			if !known {
				continue
			}
			if len(fields) < 1+numNodes {
				return fmt.Errorf("$Elements: %s line needs %d values, got %d",
					etype, 1+numNodes, len(fields))
			}
			nodeIDs := make([]int, numNodes)
			for k := range nodeIDs {
				if nodeIDs[k], err = atoi(fields[1+k]); err != nil {
					return fmt.Errorf("element %s: %w", fields[0], err)
				}
			}
			if err := msh.AddCell(etype, nodeIDs, physical, entityTag); err != nil {
				return fmt.Errorf("element %s: %w", fields[0], err)
			}
		}
	}
	return skipSection(scanner, "$EndElements")
}
