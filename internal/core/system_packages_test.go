package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/types"
)

func TestParseSystemPackageLine(t *testing.T) {
	req, err := ParseSystemPackageLine("libgl1", 1, "packages.txt")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "libgl1", req.Name)
	assert.Equal(t, types.DependencyTypeApt, req.Type)
	assert.Empty(t, req.Constraints)

	req, err = ParseSystemPackageLine("ffmpeg=7:5.1.6-0+deb12u1  # video", 2, "packages.txt")
	require.NoError(t, err)
	require.NotNil(t, req)
	require.Len(t, req.Constraints, 1)
	assert.Equal(t, types.ConstraintOpEq, req.Constraints[0].Op)
	assert.Equal(t, "7:5.1.6-0+deb12u1", req.Constraints[0].Version)

	req, err = ParseSystemPackageLine("# comment", 3, "packages.txt")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestParseSystemPackageLineInvalid(t *testing.T) {
	tests := []string{
		"libgl1 ffmpeg",
		"libgl1>=1.0",
		"LibGL1",
		"libgl1=",
	}
	for _, line := range tests {
		_, err := ParseSystemPackageLine(line, 4, "packages.txt")
		require.Error(t, err, line)
		assert.Contains(t, err.Error(), "packages.txt:4", line)
	}
}

func TestAptInstallArgs(t *testing.T) {
	manifest := types.Manifest{Requirements: []types.Requirement{
		{Name: "libgl1"},
		{Name: "ffmpeg", Constraints: []types.Constraint{{Name: "ffmpeg", Op: types.ConstraintOpEq, Version: "7:5.1.6"}}},
	}}
	assert.Equal(t, []string{"libgl1", "ffmpeg=7:5.1.6"}, AptInstallArgs(manifest))
}
