package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/types"
	"streamlit-packager/tests/testutil"
)

func TestRepoIndexFileAdapter_AvailableVersions(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "repo-index.yaml")
	content := `
apt:
  libgl1:
    - "1.7.0-1"
    - "1.6.0-1"
pip:
  streamlit:
    - "1.39.0"
    - "1.38.0"
  Streamlit_Aggrid:
    - "1.0.5"
`
	require.NoError(t, os.WriteFile(indexPath, []byte(content), 0o644))

	adapter := NewRepoIndexFileAdapter(indexPath)

	t.Run("apt known package sorted", func(t *testing.T) {
		versions, err := adapter.AvailableVersions(t.Context(), types.DependencyTypeApt, "libgl1")
		require.NoError(t, err)
		assert.Equal(t, []string{"1.6.0-1", "1.7.0-1"}, versions)
	})

	t.Run("apt unknown package", func(t *testing.T) {
		versions, err := adapter.AvailableVersions(t.Context(), types.DependencyTypeApt, "nonexistent")
		require.NoError(t, err)
		assert.Nil(t, versions)
	})

	t.Run("pip sorted", func(t *testing.T) {
		versions, err := adapter.AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit")
		require.NoError(t, err)
		assert.Equal(t, []string{"1.38.0", "1.39.0"}, versions)
	})

	t.Run("pip keys are normalized on load", func(t *testing.T) {
		versions, err := adapter.AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit.aggrid")
		require.NoError(t, err)
		assert.Equal(t, []string{"1.0.5"}, versions)
	})

	t.Run("unknown dependency type", func(t *testing.T) {
		_, err := adapter.AvailableVersions(t.Context(), "unknown", "libfoo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown dependency type")
	})
}

func TestRepoIndexFileAdapter_Caching(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "repo-index.yaml")
	require.NoError(t, os.WriteFile(indexPath, []byte("pip:\n  streamlit: [\"1.39.0\"]\n"), 0o644))

	adapter := NewRepoIndexFileAdapter(indexPath)
	v1, err := adapter.AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit")
	require.NoError(t, err)

	// Remove the file -- should still work from cache
	require.NoError(t, os.Remove(indexPath))

	v2, err := adapter.AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestRepoIndexFileAdapter_Errors(t *testing.T) {
	adapter := NewRepoIndexFileAdapter("/nonexistent/path/repo-index.yaml")
	_, err := adapter.AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repo index file not found")

	dir := t.TempDir()
	indexPath := filepath.Join(dir, "repo-index.yaml")
	require.NoError(t, os.WriteFile(indexPath, []byte("{{{{invalid yaml"), 0o644))
	_, err = NewRepoIndexFileAdapter(indexPath).AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid repo index format")
}

func TestRepoIndexFixtureHasSystemPackages(t *testing.T) {
	adapter := NewRepoIndexFileAdapter(testutil.Fixture(t, "repo-index.yaml"))
	ok, err := adapter.HasSystemPackages()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepoIndexWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, NewRepoIndexWriterAdapter().Write(path, types.RepoIndexFile{
		Pip: map[string][]string{"streamlit": {"1.39.0"}},
	}))

	versions, err := NewRepoIndexFileAdapter(path).AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.39.0"}, versions)
}
