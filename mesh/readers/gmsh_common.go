package readers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/meshconv/mesh"
)

// ErrBinaryGmsh is returned for binary MSH files, only ASCII is read
var ErrBinaryGmsh = errors.New("binary MSH files are not supported")

// ReadGmshAuto automatically detects the Gmsh format version and reads the file
func ReadGmshAuto(filename string) (*mesh.Mesh, error) {
	version, err := detectGmshVersion(filename)
	if err != nil {
		return nil, err
	}

	// Determine which reader to use based on version
	switch {
	case strings.HasPrefix(version, "4."):
		return ReadGmsh4(filename)
	case strings.HasPrefix(version, "2."):
		return ReadGmsh22(filename)
	case version == "":
		return nil, fmt.Errorf("could not find $MeshFormat section")
	default:
		return nil, fmt.Errorf("unsupported Gmsh format version: %s", version)
	}
}

func detectGmshVersion(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Look for $MeshFormat section to determine version
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "$MeshFormat" {
			continue
		}
		if scanner.Scan() {
			if parts := strings.Fields(scanner.Text()); len(parts) > 0 {
				return parts[0], nil
			}
		}
		break
	}
	return "", scanner.Err()
}

// readMeshFormat reads the MeshFormat section (same layout in v2.2 and v4)
func readMeshFormat(scanner *bufio.Scanner, msh *mesh.Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in MeshFormat")
	}

	parts := strings.Fields(scanner.Text())
	if len(parts) < 3 {
		return fmt.Errorf("invalid MeshFormat line")
	}

	msh.FormatVersion = parts[0]
	fileType, _ := strconv.Atoi(parts[1])
	msh.IsBinary = fileType == 1
	msh.DataSize, _ = strconv.Atoi(parts[2])
	if msh.IsBinary {
		return ErrBinaryGmsh
	}

	return skipSection(scanner, "$EndMeshFormat")
}

// readPhysicalNames reads physical group names (common to v2.2 and v4)
func readPhysicalNames(scanner *bufio.Scanner, msh *mesh.Mesh) error {
	if !scanner.Scan() {
		return fmt.Errorf("unexpected EOF in PhysicalNames")
	}

	numNames, err := atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return fmt.Errorf("PhysicalNames count: %w", err)
	}

	for i := 0; i < numNames; i++ {
		if !scanner.Scan() {
			return fmt.Errorf("unexpected EOF reading physical names")
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) < 3 {
			continue
		}
		dimension, _ := strconv.Atoi(parts[0])
		tag, _ := strconv.Atoi(parts[1])

		// Join remaining parts if name contains spaces
		name := strings.Trim(strings.Join(parts[2:], " "), "\"")
		msh.FieldData[name] = mesh.PhysicalName{Tag: tag, Dimension: dimension}
	}

	return skipSection(scanner, "$EndPhysicalNames")
}

// nextFields advances to the next line of a section and splits it
func nextFields(scanner *bufio.Scanner, what string) ([]string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("file ends inside %s", what)
	}
	return strings.Fields(scanner.Text()), nil
}

func skipSection(scanner *bufio.Scanner, endMarker string) error {
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == endMarker {
			return nil
		}
	}
	return fmt.Errorf("unexpected EOF while looking for %s", endMarker)
}

func atoi(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

func atof(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseCoords parses the first three fields as x y z
func parseCoords(fields []string) ([]float64, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("expected 3 coordinates, got %d", len(fields))
	}
	coords := make([]float64, 3)
	for k := 0; k < 3; k++ {
		v, err := atof(fields[k])
		if err != nil {
			return nil, err
		}
		coords[k] = v
	}
	return coords, nil
}
