package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/types"
	"streamlit-packager/tests/testutil"
)

// TestPipelineIntegration runs validate, check and plan on a copy of the
// sample application through the local service.
func TestPipelineIntegration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(testutil.Fixture(t, "app"))))
	service := app.NewLocalService()
	source := app.SourceRequest{Overrides: types.Recipe{Source: dir, Image: "sample:it"}}

	validated, err := service.Validate(t.Context(), app.ValidateRequest{SourceRequest: source})
	require.NoError(t, err)
	assert.Equal(t, "sample:it", validated.Recipe.Image)

	checked, err := service.Check(t.Context(), app.CheckRequest{
		SourceRequest: source,
		RepoIndex:     testutil.Fixture(t, "repo-index.yaml"),
	})
	require.NoError(t, err)
	require.Len(t, checked.Resolved, 1)

	outDir := t.TempDir()
	planned, err := service.Plan(t.Context(), app.PlanRequest{SourceRequest: source, OutputDir: outDir})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(outDir, "Dockerfile"))

	// A source-only edit keeps the dependency layer key.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("import streamlit as st\nst.title('edited')\n"), 0o644))
	edited, err := service.Plan(t.Context(), app.PlanRequest{SourceRequest: source})
	require.NoError(t, err)
	assert.Equal(t, planned.Plan.Keys.Dependency, edited.Plan.Keys.Dependency)
	assert.NotEqual(t, planned.Plan.Keys.Source, edited.Plan.Keys.Source)

	// A manifest edit changes it.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("streamlit==1.38.0\n"), 0o644))
	pinned, err := service.Plan(t.Context(), app.PlanRequest{SourceRequest: source})
	require.NoError(t, err)
	assert.NotEqual(t, planned.Plan.Keys.Dependency, pinned.Plan.Keys.Dependency)
}
