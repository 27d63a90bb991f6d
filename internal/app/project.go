package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/core"
	"streamlit-packager/internal/types"
)

// RecipeFileName is looked up in the source directory when no recipe
// path is given.
const RecipeFileName = "streamlit-packager.yaml"

type project struct {
	Name     string
	Recipe   types.Recipe
	Manifest types.Manifest
	System   types.Manifest
	Tree     types.SourceTree
	Hints    []string
	cleanup  func()
}

func (p project) manifests() []types.Manifest {
	return []types.Manifest{p.Manifest, p.System}
}

// loadProject resolves the recipe, validates it, scans the source tree
// and loads both manifests. The caller must call cleanup.
func (s Service) loadProject(ctx context.Context, req SourceRequest) (project, error) {
	p := project{cleanup: func() {}}
	base := "."
	overrides := req.Overrides
	recipePath := strings.TrimSpace(req.RecipePath)

	if repoURL := strings.TrimSpace(req.RepoURL); repoURL != "" {
		if s.Git == nil {
			return p, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("git sources are not configured")
		}
		dir, err := s.Git.Clone(ctx, repoURL, req.RepoRef, "")
		if err != nil {
			return p, err
		}
		p.cleanup = func() { _ = os.RemoveAll(dir) }
		base = dir
		if overrides.Source != "" && !filepath.IsAbs(overrides.Source) {
			overrides.Source = filepath.Join(base, overrides.Source)
		}
		if recipePath != "" && !filepath.IsAbs(recipePath) {
			recipePath = filepath.Join(base, recipePath)
		}
	}
	if recipePath == "" {
		searchDir := base
		if overrides.Source != "" {
			searchDir = overrides.Source
		}
		recipePath = discoverRecipe(searchDir)
	}

	recipe := types.Recipe{Source: base}
	if recipePath != "" {
		file, err := s.Recipes.Load(recipePath)
		if err != nil {
			p.cleanup()
			return project{}, err
		}
		if file.Recipe.Source == "" {
			file.Recipe.Source = filepath.Dir(recipePath)
		}
		p.Name = file.Name
		p.Hints = recipeOverrideHints(overrides, file.Recipe)
		recipe = file.Recipe
		log.Ctx(ctx).Debug().Str("recipe", recipePath).Msg("recipe file loaded")
	}
	p.Recipe = types.ApplyRecipeDefaults(types.MergeRecipe(recipe, overrides))

	if err := s.populate(ctx, &p); err != nil {
		p.cleanup()
		return project{}, err
	}
	return p, nil
}

func (s Service) populate(ctx context.Context, p *project) error {
	if err := core.NewRecipeValidator().Validate(ctx, p.Recipe); err != nil {
		return err
	}
	root := p.Recipe.Source
	tree, err := s.Sources.Scan(ctx, root, p.Recipe.Entry)
	if err != nil {
		return err
	}
	loader := core.NewManifestLoader(s.Manifests)
	manifest, err := loader.LoadRequirements(ctx, root, p.Recipe.Manifest)
	if err != nil {
		return err
	}
	if err := core.ValidateManifest(ctx, manifest, p.Recipe); err != nil {
		return err
	}
	system, ok, err := loader.LoadSystemPackages(ctx, root, p.Recipe.SystemManifest)
	if err != nil {
		return err
	}
	if ok {
		if err := core.ValidateManifest(ctx, system, p.Recipe); err != nil {
			return err
		}
		p.System = system
	}
	p.Tree = tree
	p.Manifest = manifest
	return nil
}

func (s Service) compile(ctx context.Context, p project, resolveBase bool) (types.BuildPlan, error) {
	plan, err := core.NewPlanCompiler().Compile(ctx, core.PlanInput{
		Recipe:   p.Recipe,
		Manifest: p.Manifest,
		System:   p.System,
		Tree:     p.Tree,
	})
	if err != nil {
		return types.BuildPlan{}, err
	}
	if !resolveBase {
		return plan, nil
	}
	if s.Registry == nil {
		return types.BuildPlan{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("registry access is not configured")
	}
	digest, err := s.Registry.Digest(ctx, p.Recipe.BaseImage)
	if err != nil {
		return types.BuildPlan{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("base image not resolvable: " + p.Recipe.BaseImage).
			WithCause(err)
	}
	return core.PinBaseImage(plan, digest, p.manifests(), p.Tree), nil
}

func discoverRecipe(dir string) string {
	candidate := filepath.Join(dir, RecipeFileName)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}
