package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"streamlit-packager/internal/adapters"
	"streamlit-packager/internal/core"
)

const defaultComposeService = "app"

// Compose describes the launch contract as a compose service and the
// equivalent docker run command. With Build set the service builds
// from the source directory using the generated Dockerfile.
func (s Service) Compose(ctx context.Context, req ComposeRequest) (ComposeResult, error) {
	p, err := s.loadProject(ctx, req.SourceRequest)
	if err != nil {
		return ComposeResult{}, err
	}
	defer p.cleanup()
	plan, err := s.compile(ctx, p, false)
	if err != nil {
		return ComposeResult{}, err
	}

	service := strings.TrimSpace(req.Service)
	if service == "" {
		service = p.Name
	}
	if service == "" {
		service = defaultComposeService
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	output := adapters.NewOutputFileAdapter(outputDir)

	recipe := p.Recipe
	buildContext := ""
	if req.Build {
		if outputDir == "" {
			return ComposeResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("output directory is required to build from compose")
		}
		dockerfilePath, err := output.WriteDockerfile(plan.Recipe.Dockerfile, core.RenderDockerfile(plan))
		if err != nil {
			return ComposeResult{}, err
		}
		buildContext, err = relativeTo(outputDir, recipe.Source)
		if err != nil {
			return ComposeResult{}, err
		}
		recipe.Dockerfile, err = relativeTo(recipe.Source, dockerfilePath)
		if err != nil {
			return ComposeResult{}, err
		}
	}
	project := core.ComposeProject(recipe, service, req.HostPort, buildContext)
	result := ComposeResult{
		Project: project,
		RunArgs: core.RunArgs(recipe, service, req.HostPort),
	}
	if outputDir != "" {
		written, err := output.WriteCompose(project)
		if err != nil {
			return ComposeResult{}, err
		}
		result.Path = written
	}
	return result, nil
}

func relativeTo(base string, target string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", pathError(err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", pathError(err)
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return "", pathError(err)
	}
	return filepath.ToSlash(rel), nil
}

func pathError(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to resolve path").
		WithCause(err)
}
