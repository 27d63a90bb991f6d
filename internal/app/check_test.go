package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/adapters"
	"streamlit-packager/internal/types"
	"streamlit-packager/tests/testutil"
)

func newSimpleIndex(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimSuffix(r.URL.Path, "/") {
		case "/simple/streamlit":
			_, _ = w.Write([]byte(`<a href="/f/streamlit-1.38.0-py2.py3-none-any.whl">streamlit-1.38.0-py2.py3-none-any.whl</a>
<a href="/f/streamlit-1.39.0-py2.py3-none-any.whl">streamlit-1.39.0-py2.py3-none-any.whl</a>`))
		case "/simple/pandas":
			_, _ = w.Write([]byte(`<a href="/f/pandas-2.2.3.tar.gz">pandas-2.2.3.tar.gz</a>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheckAgainstRepoIndex(t *testing.T) {
	result, err := NewLocalService().Check(t.Context(), CheckRequest{
		SourceRequest: SourceRequest{RecipePath: testutil.Fixture(t, "streamlit-packager.yaml")},
		RepoIndex:     testutil.Fixture(t, "repo-index.yaml"),
	})
	require.NoError(t, err)
	want := []types.ResolvedDependency{{Type: types.DependencyTypePip, Package: "streamlit", Version: "1.39.0"}}
	if diff := cmp.Diff(want, result.Resolved); diff != "" {
		t.Fatalf("unexpected resolution (-want +got):\n%s", diff)
	}
}

func TestCheckUnavailableVersion(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"main.py":          "import streamlit as st\n",
		"requirements.txt": "streamlit==9.9.9\n",
	})
	_, err := NewLocalService().Check(t.Context(), CheckRequest{
		SourceRequest: SourceRequest{Overrides: types.Recipe{Source: dir}},
		RepoIndex:     testutil.Fixture(t, "repo-index.yaml"),
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "no compatible version for streamlit")
}

func TestCheckSystemPackages(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"main.py":          "import streamlit as st\n",
		"requirements.txt": "streamlit>=1.39\n",
		"packages.txt":     "libgl1=1.7.0-1\n",
	})
	result, err := NewLocalService().Check(t.Context(), CheckRequest{
		SourceRequest: SourceRequest{Overrides: types.Recipe{Source: dir}},
		RepoIndex:     testutil.Fixture(t, "repo-index.yaml"),
	})
	require.NoError(t, err)
	require.Len(t, result.Resolved, 2)
	assert.Equal(t, types.ResolvedDependency{Type: types.DependencyTypeApt, Package: "libgl1", Version: "1.7.0-1"}, result.Resolved[1])
}

func TestCheckAgainstPipIndex(t *testing.T) {
	server := newSimpleIndex(t)
	result, err := NewLocalService().Check(t.Context(), CheckRequest{
		SourceRequest: SourceRequest{RecipePath: testutil.Fixture(t, "streamlit-packager.yaml")},
		PipIndexURL:   server.URL + "/simple",
	})
	require.NoError(t, err)
	require.Len(t, result.Resolved, 1)
	assert.Equal(t, "1.39.0", result.Resolved[0].Version)
}

func TestCheckUsesManifestIndexOptions(t *testing.T) {
	primary := newSimpleIndex(t)
	private := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSuffix(r.URL.Path, "/") != "/simple/acme-widgets" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<a href="/f/acme_widgets-0.1.0-py3-none-any.whl">acme_widgets-0.1.0-py3-none-any.whl</a>
<a href="/f/acme_widgets-0.2.0rc1-py3-none-any.whl">acme_widgets-0.2.0rc1-py3-none-any.whl</a>`))
	}))
	t.Cleanup(private.Close)

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"main.py": "import streamlit as st\n",
		"requirements.txt": "--index-url " + primary.URL + "/simple\n" +
			"--extra-index-url " + private.URL + "/simple\n" +
			"streamlit>=1.38\n" +
			"acme-widgets>=0.1\n",
	})
	source := SourceRequest{Overrides: types.Recipe{Source: dir}}

	result, err := NewLocalService().Check(t.Context(), CheckRequest{SourceRequest: source})
	require.NoError(t, err)
	want := []types.ResolvedDependency{
		{Type: types.DependencyTypePip, Package: "streamlit", Version: "1.39.0"},
		{Type: types.DependencyTypePip, Package: "acme-widgets", Version: "0.1.0"},
	}
	if diff := cmp.Diff(want, result.Resolved); diff != "" {
		t.Fatalf("unexpected resolution (-want +got):\n%s", diff)
	}

	testutil.WriteFiles(t, dir, map[string]string{
		"requirements.txt": "--extra-index-url " + private.URL + "/simple\n--pre\nstreamlit\nacme-widgets>=0.1\n",
	})
	result, err = NewLocalService().Check(t.Context(), CheckRequest{
		SourceRequest: source,
		PipIndexURL:   primary.URL + "/simple",
	})
	require.NoError(t, err)
	require.Len(t, result.Resolved, 2)
	assert.Equal(t, "0.2.0rc1", result.Resolved[1].Version)
}

func TestCheckLocksMarkerAlternates(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"main.py": "import streamlit as st\n",
		"requirements.txt": "streamlit==1.39.0; python_version >= \"3.9\"\n" +
			"streamlit==1.38.0; python_version < \"3.9\"\n",
	})
	result, err := NewLocalService().Check(t.Context(), CheckRequest{
		SourceRequest: SourceRequest{Overrides: types.Recipe{Source: dir}},
		OutputDir:     out,
		RepoIndex:     testutil.Fixture(t, "repo-index.yaml"),
	})
	require.NoError(t, err)
	require.Len(t, result.Resolved, 2)

	lock, err := os.ReadFile(filepath.Join(out, adapters.RequirementsLockName))
	require.NoError(t, err)
	assert.Equal(t, "streamlit==1.38.0; python_version < \"3.9\"\nstreamlit==1.39.0; python_version >= \"3.9\"\n", string(lock))
}

func TestIndexSnapshotsManifestPackages(t *testing.T) {
	server := newSimpleIndex(t)
	output := filepath.Join(t.TempDir(), "repo-index.yaml")

	result, err := NewLocalService().Index(t.Context(), IndexRequest{
		SourceRequest: SourceRequest{RecipePath: testutil.Fixture(t, "streamlit-packager.yaml")},
		Output:        output,
		Packages:      []string{"pandas"},
		PipIndexURL:   server.URL + "/simple",
	})
	require.NoError(t, err)
	assert.Equal(t, output, result.OutputPath)
	assert.Equal(t, 2, result.PipCount)

	versions, err := adapters.NewRepoIndexFileAdapter(output).AvailableVersions(t.Context(), types.DependencyTypePip, "streamlit")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.38.0", "1.39.0"}, versions)
}

func TestIndexRequiresOutput(t *testing.T) {
	_, err := NewLocalService().Index(t.Context(), IndexRequest{Packages: []string{"pandas"}})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestCheckWritesLockAndSBOM(t *testing.T) {
	out := t.TempDir()
	service := NewLocalService()
	service.Clock = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	result, err := service.Check(t.Context(), CheckRequest{
		SourceRequest: SourceRequest{RecipePath: testutil.Fixture(t, "streamlit-packager.yaml")},
		OutputDir:     out,
		RepoIndex:     testutil.Fixture(t, "repo-index.yaml"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, adapters.RequirementsLockName)}, result.LockFiles)
	assert.Equal(t, filepath.Join(out, adapters.SBOMName), result.SBOMPath)

	lock, err := os.ReadFile(result.LockFiles[0])
	require.NoError(t, err)
	assert.Equal(t, "streamlit==1.39.0\n", string(lock))

	sbom, err := os.ReadFile(result.SBOMPath)
	require.NoError(t, err)
	assert.Contains(t, string(sbom), `"created": "2026-01-02T03:04:05Z"`)
	assert.Contains(t, string(sbom), "pkg:pypi/streamlit@1.39.0")
}
