package core

import (
	"context"
	"fmt"
	"net"
	"path"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/types"
)

type RecipeValidator struct{}

func NewRecipeValidator() RecipeValidator {
	return RecipeValidator{}
}

// Validate checks a recipe that already has defaults applied.
func (v RecipeValidator) Validate(ctx context.Context, recipe types.Recipe) error {
	assert.NotEmpty(ctx, recipe.Image, "image must be set")
	assert.NotEmpty(ctx, recipe.BaseImage, "base_image must be set")
	assert.NotEmpty(ctx, recipe.Launcher, "launcher must be set")
	assert.NotEmpty(ctx, recipe.Entry, "entry must be set")

	if _, err := name.ParseReference(recipe.Image); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid image reference %q", recipe.Image)).
			WithCause(err)
	}
	if _, err := name.ParseReference(recipe.BaseImage); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid base image reference %q", recipe.BaseImage)).
			WithCause(err)
	}
	if !path.IsAbs(recipe.Workdir) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("workdir must be an absolute path, got %q", recipe.Workdir))
	}
	if recipe.Port < 1 || recipe.Port > 65535 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("port must be between 1 and 65535, got %d", recipe.Port))
	}
	if net.ParseIP(recipe.Address) == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("address must be an IP address, got %q", recipe.Address))
	}
	if strings.ContainsAny(recipe.Launcher, " \t/") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("launcher must be a single command name, got %q", recipe.Launcher))
	}
	if err := validateRelPath("entry", recipe.Entry); err != nil {
		return err
	}
	if err := validateRelPath("manifest", recipe.Manifest); err != nil {
		return err
	}
	if err := validateRelPath("dockerfile", recipe.Dockerfile); err != nil {
		return err
	}
	if recipe.SystemManifest != "" {
		if err := validateRelPath("system_manifest", recipe.SystemManifest); err != nil {
			return err
		}
	}
	log.Ctx(ctx).Debug().Str("image", recipe.Image).Str("base", recipe.BaseImage).Msg("recipe validated")
	return nil
}

// validateRelPath requires a path relative to the source root that does
// not climb out of it.
func validateRelPath(field string, value string) error {
	value = strings.ReplaceAll(strings.TrimSpace(value), "\\", "/")
	if value == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(field + " must be set")
	}
	cleaned := path.Clean(value)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned == "." {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s must be a file path inside the source tree, got %q", field, value))
	}
	return nil
}
