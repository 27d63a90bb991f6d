package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/adapters"
	"streamlit-packager/internal/core"
	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

// contextDockerfile is where the generated Dockerfile is placed inside
// the build context, replacing any file of the same name.
const contextDockerfile = "Dockerfile"

func (s Service) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	if s.Builder == nil || s.Contexts == nil {
		return BuildResult{}, engineNotConfigured()
	}
	p, err := s.loadProject(ctx, req.SourceRequest)
	if err != nil {
		return BuildResult{}, err
	}
	defer p.cleanup()

	plan, err := s.compile(ctx, p, req.ResolveBase)
	if err != nil {
		return BuildResult{}, err
	}
	dockerfile := core.RenderDockerfile(plan)

	var output adapters.OutputFileAdapter
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir != "" {
		output = adapters.NewOutputFileAdapter(outputDir)
		if _, err := output.WriteDockerfile(plan.Recipe.Dockerfile, dockerfile); err != nil {
			return BuildResult{}, err
		}
	}

	buildContext, err := s.Contexts.Open(ctx, p.Tree, contextDockerfile, []byte(dockerfile))
	if err != nil {
		return BuildResult{}, err
	}
	defer buildContext.Close()

	log.Ctx(ctx).Info().
		Str("image", plan.Recipe.Image).
		Str("base", plan.Recipe.BaseImage).
		Int("files", len(p.Tree.Files)).
		Msg("building image")
	built, err := s.Builder.Build(ctx, ports.ImageBuildRequest{
		Tag:        plan.Recipe.Image,
		Dockerfile: contextDockerfile,
		Context:    buildContext,
		Labels:     imageLabels(plan),
		NoCache:    req.NoCache,
		Pull:       req.Pull,
		Output:     req.Output,
	})
	if err != nil {
		return BuildResult{}, err
	}
	plan, err = core.MarkBuilt(plan)
	if err != nil {
		return BuildResult{}, err
	}

	report := types.BuildReport{
		Image:      plan.Recipe.Image,
		ImageID:    built.ImageID,
		BaseImage:  plan.Recipe.BaseImage,
		BaseDigest: plan.BaseDigest,
		Keys:       plan.Keys,
		Launch:     plan.Launch,
		Dockerfile: dockerfile,
	}
	result := BuildResult{Report: report, Hints: p.Hints}
	if outputDir != "" {
		path, err := output.WriteBuildReport(report)
		if err != nil {
			return BuildResult{}, err
		}
		result.ReportPath = path
	}
	return result, nil
}

func imageLabels(plan types.BuildPlan) map[string]string {
	labels := make(map[string]string, len(plan.Recipe.Labels)+2)
	for k, v := range plan.Recipe.Labels {
		labels[k] = v
	}
	labels[types.DependencyKeyLabel] = plan.Keys.Dependency
	labels[types.SourceKeyLabel] = plan.Keys.Source
	return labels
}

func engineNotConfigured() error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("container engine is not configured")
}
