package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"streamlit-packager/internal/types"
)

func TestOutputFileAdapterWritesArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	adapter := NewOutputFileAdapter(dir)

	path, err := adapter.WriteDockerfile("", "FROM python:3.11-slim\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Dockerfile"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FROM python:3.11-slim\n", string(data))

	project := types.ComposeProject{Services: map[string]types.ComposeService{
		"app": {Image: "demo:dev", Ports: []string{"8501:8501"}},
	}}
	path, err = adapter.WriteCompose(project)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	got := types.ComposeProject{}
	require.NoError(t, yaml.Unmarshal(data, &got))
	if diff := cmp.Diff(project, got); diff != "" {
		t.Fatalf("unexpected compose content (-want +got):\n%s", diff)
	}
}

func TestOutputFileAdapterRejectsEmptyDir(t *testing.T) {
	_, err := NewOutputFileAdapter("").WriteDockerfile("", "FROM x\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory is empty")
}

func TestOutputFileAdapterWritesNamedDockerfile(t *testing.T) {
	dir := t.TempDir()
	adapter := NewOutputFileAdapter(dir)

	path, err := adapter.WriteDockerfile("docker/app.Dockerfile", "FROM x\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docker", "app.Dockerfile"), path)
	assert.FileExists(t, path)

	for _, name := range []string{"../Dockerfile", "/tmp/Dockerfile", "."} {
		_, err := adapter.WriteDockerfile(name, "FROM x\n")
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "dockerfile must be a path inside the output directory", name)
	}
}
