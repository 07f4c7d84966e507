package readers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/notargets/meshconv/mesh"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// ReadMeshFile reads a mesh file based on extension and validates it
func ReadMeshFile(filename string) (*mesh.Mesh, error) {
	var (
		msh *mesh.Mesh
		err error
	)
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".msh":
		msh, err = ReadGmshAuto(filename)
	case ".stl":
		msh, err = ReadSTL(filename)
	case ".nas", ".bdf":
		msh, err = ReadNastran(filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(filename), err)
	}
	if err = msh.Validate(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(filename), err)
	}
	return msh, nil
}
