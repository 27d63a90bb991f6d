package app

import (
	"os"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/types"
	"streamlit-packager/tests/testutil"
)

func TestValidateFixtureRecipe(t *testing.T) {
	service := NewLocalService()
	result, err := service.Validate(t.Context(), ValidateRequest{SourceRequest{
		RecipePath: testutil.Fixture(t, "streamlit-packager.yaml"),
	}})
	require.NoError(t, err)
	assert.Equal(t, "sample", result.Name)
	assert.Equal(t, "streamlit-sample:dev", result.Recipe.Image)
	assert.Equal(t, types.DefaultPort, result.Recipe.Port)
	assert.Equal(t, 1, result.Requirements)
	assert.Zero(t, result.SystemPackages)
	assert.Greater(t, result.Files, 3)
	assert.Empty(t, result.Hints)
}

func TestValidateDiscoversRecipeInSourceDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"streamlit-packager.yaml": "api_version: v1\nkind: recipe\nname: found\nrecipe:\n  image: found:1\n",
		"main.py":                 "import streamlit as st\n",
		"requirements.txt":        "streamlit\n",
	})

	result, err := NewLocalService().Validate(t.Context(), ValidateRequest{SourceRequest{
		Overrides: types.Recipe{Source: dir},
	}})
	require.NoError(t, err)
	assert.Equal(t, "found", result.Name)
	assert.Equal(t, "found:1", result.Recipe.Image)
	assert.Equal(t, dir, result.Recipe.Source)
}

func TestValidateMissingEntry(t *testing.T) {
	_, err := NewLocalService().Validate(t.Context(), ValidateRequest{SourceRequest{
		Overrides: types.Recipe{Source: testutil.Fixture(t, "app-missing-entry")},
	}})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "entry file not found: main.py")
}

func TestValidateLauncherRequirement(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"main.py":          "print('hi')\n",
		"requirements.txt": "pandas==2.2.3\n",
	})
	service := NewLocalService()

	_, err := service.Validate(t.Context(), ValidateRequest{SourceRequest{
		Overrides: types.Recipe{Source: dir},
	}})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "does not list launcher package streamlit")

	_, err = service.Validate(t.Context(), ValidateRequest{SourceRequest{
		Overrides: types.Recipe{Source: dir, AllowMissingLauncher: true},
	}})
	require.NoError(t, err)
}

func TestValidateReportsOverrideHints(t *testing.T) {
	result, err := NewLocalService().Validate(t.Context(), ValidateRequest{SourceRequest{
		RecipePath: testutil.Fixture(t, "streamlit-packager.yaml"),
		Overrides:  types.Recipe{Image: "other:1"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "other:1", result.Recipe.Image)
	require.Len(t, result.Hints, 1)
	assert.Contains(t, result.Hints[0], "--image overrides recipe.image (streamlit-sample:dev)")
}

func TestValidateGitSourceIsCleanedUp(t *testing.T) {
	git := &fakeGit{files: map[string]string{
		"main.py":          "import streamlit as st\n",
		"requirements.txt": "streamlit>=1.30\n",
	}}
	service := NewLocalService()
	service.Git = git

	result, err := service.Validate(t.Context(), ValidateRequest{SourceRequest{
		RepoURL: "https://example.com/team/app.git",
		RepoRef: "main",
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Requirements)
	assert.Equal(t, []string{"https://example.com/team/app.git@main"}, git.refs)
	require.Len(t, git.dirs, 1)
	_, err = os.Stat(git.dirs[0])
	assert.True(t, os.IsNotExist(err))
}
