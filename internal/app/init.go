package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/core"
	"streamlit-packager/internal/types"
)

// Init writes a starter recipe. Only the fields set on the request are
// persisted so the package defaults keep applying to the rest.
func (s Service) Init(ctx context.Context, req InitRequest) (string, error) {
	dir := strings.TrimSpace(req.Dir)
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, RecipeFileName)
	if _, err := os.Stat(path); err == nil && !req.Force {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg("recipe already exists: " + path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stat recipe").
			WithCause(err)
	}

	recipe := req.Recipe
	recipe.Source = ""
	if err := core.NewRecipeValidator().Validate(ctx, types.ApplyRecipeDefaults(recipe)); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create recipe directory").
			WithCause(err)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = filepath.Base(absOrSelf(dir))
	}
	if err := s.Recipes.Save(path, types.RecipeFile{Name: name, Recipe: recipe}); err != nil {
		return "", err
	}
	log.Ctx(ctx).Info().Str("path", path).Str("name", name).Msg("recipe written")
	return path, nil
}

func absOrSelf(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
