package app

import (
	"context"
	"strings"

	"streamlit-packager/internal/adapters"
	"streamlit-packager/internal/core"
)

func (s Service) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	p, err := s.loadProject(ctx, req.SourceRequest)
	if err != nil {
		return PlanResult{}, err
	}
	defer p.cleanup()
	plan, err := s.compile(ctx, p, req.ResolveBase)
	if err != nil {
		return PlanResult{}, err
	}
	result := PlanResult{
		Plan:       plan,
		Dockerfile: core.RenderDockerfile(plan),
		Hints:      p.Hints,
	}
	if outputDir := strings.TrimSpace(req.OutputDir); outputDir != "" {
		path, err := adapters.NewOutputFileAdapter(outputDir).WriteDockerfile(plan.Recipe.Dockerfile, result.Dockerfile)
		if err != nil {
			return PlanResult{}, err
		}
		result.DockerfilePath = path
	}
	return result, nil
}
