package InputParameters

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	ip := NewMeshingParameters()
	require.NoError(t, ip.Validate())
	assert.Equal(t, 40., ip.FeatureAngle)
	assert.Equal(t, 180., ip.CurveAngle)
	assert.True(t, ip.IncludeBoundary)
	assert.True(t, ip.ForceParametrizablePatches)
	assert.Equal(t, 5*time.Minute, ip.Timeout())
	assert.InDelta(t, 40*math.Pi/180, ip.FeatureAngleRadians(), 1e-15)
	assert.InDelta(t, math.Pi, ip.CurveAngleRadians(), 1e-15)
}

func TestParseOverlaysDefaults(t *testing.T) {
	fileInput := []byte(`
Title: Column study
FeatureAngle: 35
ElementOrder: 2
IncludeBoundary: false
ExtraArgs:
  - -nt
  - "4"
TimeoutSeconds: 12.5
`)
	ip := NewMeshingParameters()
	require.NoError(t, ip.Parse(fileInput))

	assert.Equal(t, "Column study", ip.Title)
	assert.Equal(t, 35., ip.FeatureAngle)
	assert.Equal(t, 180., ip.CurveAngle)
	assert.Equal(t, 2, ip.ElementOrder)
	assert.False(t, ip.IncludeBoundary)
	assert.True(t, ip.ForceParametrizablePatches)
	assert.Equal(t, []string{"-nt", "4"}, ip.ExtraArgs)
	assert.Equal(t, 12500*time.Millisecond, ip.Timeout())
	assert.Equal(t, "gmsh", ip.EngineBinary)

	var buf bytes.Buffer
	ip.Print(&buf)
	assert.Contains(t, buf.String(), "Column study")
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"angle":   "FeatureAngle: 0",
		"curve":   "CurveAngle: 200",
		"order":   "ElementOrder: 3",
		"timeout": "TimeoutSeconds: -1",
		"binary":  `EngineBinary: ""`,
		"syntax":  "FeatureAngle: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, NewMeshingParameters().Parse([]byte(doc)))
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("EngineBinary: /opt/gmsh/bin/gmsh\n"), 0644))

	ip := NewMeshingParameters()
	require.NoError(t, ip.ReadFile(path))
	assert.Equal(t, "/opt/gmsh/bin/gmsh", ip.EngineBinary)

	assert.Error(t, ip.ReadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
