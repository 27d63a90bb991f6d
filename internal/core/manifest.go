package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

// ValidateManifest rejects duplicate requirements and, for pip manifests,
// requires the recipe's launcher package to be listed. Entries for the
// same package under different environment markers are alternates, not
// duplicates.
func ValidateManifest(ctx context.Context, manifest types.Manifest, recipe types.Recipe) error {
	seen := map[string]types.Requirement{}
	names := map[string]struct{}{}
	for _, req := range manifest.Requirements {
		key := req.Normalized + "\x00" + strings.Join(strings.Fields(req.Marker), " ")
		if prev, ok := seen[key]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate requirement %s (%s:%d and %s:%d)", req.Name, prev.Source, prev.Line, req.Source, req.Line))
		}
		seen[key] = req
		names[req.Normalized] = struct{}{}
	}
	if manifest.Type != types.DependencyTypePip {
		return nil
	}
	launcher := shared.NormalizePipName(recipe.Launcher)
	if _, ok := names[launcher]; ok {
		return nil
	}
	if recipe.AllowMissingLauncher {
		log.Ctx(ctx).Warn().
			Str("manifest", manifest.Path).
			Str("launcher", launcher).
			Msg("manifest does not list the launcher package; the base image must provide it")
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("manifest %s does not list launcher package %s", manifest.Path, launcher))
}
