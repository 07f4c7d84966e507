package InputParameters

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/go-homedir"
)

// Parameters obtained from the YAML meshing parameters file
type MeshingParameters struct {
	Title                      string   `json:"Title"`
	EngineBinary               string   `json:"EngineBinary"`               // gmsh executable, looked up on PATH
	ExtraArgs                  []string `json:"ExtraArgs"`                  // appended to the gmsh command line
	FeatureAngle               float64  `json:"FeatureAngle"`               // degrees, sharp feature detection
	CurveAngle                 float64  `json:"CurveAngle"`                 // degrees, curve segmentation
	IncludeBoundary            bool     `json:"IncludeBoundary"`            // classify boundary edges too
	ForceParametrizablePatches bool     `json:"ForceParametrizablePatches"` // re-patch into parametrizable surfaces
	ElementOrder               int      `json:"ElementOrder"`               // 1 or 2; order 2 output is degraded afterwards
	TimeoutSeconds             float64  `json:"TimeoutSeconds"`             // 0 disables the limit
	InputSuffix                string   `json:"InputSuffix"`                // recognised upload name suffix
	OutputSuffix               string   `json:"OutputSuffix"`               // replaces InputSuffix in the output name
	FallbackOutputName         string   `json:"FallbackOutputName"`         // used when InputSuffix does not match
}

// NewMeshingParameters returns the settings used for FrontISTR meshes
func NewMeshingParameters() *MeshingParameters {
	return &MeshingParameters{
		Title:                      "STL to tetrahedral MSH",
		EngineBinary:               "gmsh",
		FeatureAngle:               40,
		CurveAngle:                 180,
		IncludeBoundary:            true,
		ForceParametrizablePatches: true,
		ElementOrder:               1,
		TimeoutSeconds:             300,
		InputSuffix:                "_column_comsol_mesh.stl",
		OutputSuffix:               "Framec_fistr.msh",
		FallbackOutputName:         "converted_fistr.msh",
	}
}

// Parse overlays the YAML document onto the current values, so fields the
// document leaves out keep their defaults
func (ip *MeshingParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return fmt.Errorf("parsing meshing parameters: %w", err)
	}
	return ip.Validate()
}

// ReadFile parses a parameters file; "~" in the path is expanded
func (ip *MeshingParameters) ReadFile(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return err
	}
	return ip.Parse(data)
}

// Validate checks value ranges
func (ip *MeshingParameters) Validate() error {
	switch {
	case ip.EngineBinary == "":
		return fmt.Errorf("EngineBinary must be set")
	case ip.FeatureAngle <= 0 || ip.FeatureAngle > 180:
		return fmt.Errorf("FeatureAngle %g out of range (0,180]", ip.FeatureAngle)
	case ip.CurveAngle <= 0 || ip.CurveAngle > 180:
		return fmt.Errorf("CurveAngle %g out of range (0,180]", ip.CurveAngle)
	case ip.ElementOrder != 1 && ip.ElementOrder != 2:
		return fmt.Errorf("ElementOrder must be 1 or 2, got %d", ip.ElementOrder)
	case ip.TimeoutSeconds < 0:
		return fmt.Errorf("TimeoutSeconds must not be negative")
	case ip.FallbackOutputName == "":
		return fmt.Errorf("FallbackOutputName must be set")
	}
	return nil
}

// Timeout returns the engine time limit, zero meaning none
func (ip *MeshingParameters) Timeout() time.Duration {
	return time.Duration(ip.TimeoutSeconds * float64(time.Second))
}

// FeatureAngleRadians and CurveAngleRadians feed the gmsh script, which
// takes angles in radians
func (ip *MeshingParameters) FeatureAngleRadians() float64 {
	return ip.FeatureAngle * math.Pi / 180
}

func (ip *MeshingParameters) CurveAngleRadians() float64 {
	return ip.CurveAngle * math.Pi / 180
}

func (ip *MeshingParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%s]\t\t\t= Engine\n", ip.EngineBinary)
	fmt.Fprintf(w, "%8.2f\t\t= Feature Angle (deg)\n", ip.FeatureAngle)
	fmt.Fprintf(w, "%8.2f\t\t= Curve Angle (deg)\n", ip.CurveAngle)
	fmt.Fprintf(w, "[%t]\t\t\t= Include Boundary\n", ip.IncludeBoundary)
	fmt.Fprintf(w, "[%t]\t\t\t= Force Parametrizable Patches\n", ip.ForceParametrizablePatches)
	fmt.Fprintf(w, "[%d]\t\t\t\t= Element Order\n", ip.ElementOrder)
	fmt.Fprintf(w, "%8.1f\t\t= Timeout (s)\n", ip.TimeoutSeconds)
}
