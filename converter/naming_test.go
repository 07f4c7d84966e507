package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		in       string
		strategy Strategy
		want     string
	}{
		{"P7_column_comsol_mesh.stl", StrategySurfaceToVolume, "P7Framec_fistr.msh"},
		{"/uploads/A1_column_comsol_mesh.stl", StrategySurfaceToVolume, "A1Framec_fistr.msh"},
		{"_column_comsol_mesh.stl", StrategySurfaceToVolume, "Framec_fistr.msh"},
		{"bracket.stl", StrategySurfaceToVolume, "converted_fistr.msh"},
		{"P7_column_comsol_mesh.STL", StrategySurfaceToVolume, "converted_fistr.msh"},
		{"bracket.nas", StrategyDirect, "bracket.msh"},
		{"surface.stl", StrategyDirect, "surface.msh"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.in, tt.strategy, nil), tt.in)
	}
}

func TestStrategyFor(t *testing.T) {
	s, err := StrategyFor("wing.STL")
	require.NoError(t, err)
	assert.Equal(t, StrategySurfaceToVolume, s)

	s, err = StrategyFor("frame.nas")
	require.NoError(t, err)
	assert.Equal(t, StrategyDirect, s)

	_, err = StrategyFor("notes.txt")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = StrategyFor("done.msh")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseStrategy(t *testing.T) {
	s, ok, err := ParseStrategy("surface-to-volume")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StrategySurfaceToVolume, s)
	assert.Equal(t, "surface-to-volume", s.String())

	_, ok, err = ParseStrategy("auto")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseStrategy("remesh")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
