package converter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Strategy selects how an input mesh becomes a linear tetrahedral MSH 2.2 mesh
type Strategy int

const (
	// StrategyDirect parses the input, degrades tetra10 cells and writes MSH 2.2
	StrategyDirect Strategy = iota
	// StrategySurfaceToVolume fills a closed surface with tetrahedra using gmsh
	StrategySurfaceToVolume
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategySurfaceToVolume:
		return "surface-to-volume"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the names printed by String; "auto" and "" return
// ok=false so the caller can fall back to StrategyFor
func ParseStrategy(name string) (s Strategy, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return StrategyDirect, false, nil
	case "direct":
		return StrategyDirect, true, nil
	case "surface-to-volume", "volume", "stv":
		return StrategySurfaceToVolume, true, nil
	}
	return StrategyDirect, false, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, name)
}

// StrategyFor picks the default strategy for an input file name. Surface
// STL files go through gmsh; NASTRAN volume meshes are converted directly.
func StrategyFor(name string) (Strategy, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".stl":
		return StrategySurfaceToVolume, nil
	case ".nas", ".bdf":
		return StrategyDirect, nil
	}
	return StrategyDirect, fmt.Errorf("%w: %s is not a convertible mesh", ErrInvalidInput, filepath.Base(name))
}

// Supports reports whether the strategy can run on the named input
func (s Strategy) Supports(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch s {
	case StrategyDirect:
		return ext == ".stl" || ext == ".nas" || ext == ".bdf" || ext == ".msh"
	case StrategySurfaceToVolume:
		return ext == ".stl"
	}
	return false
}
