package app

import (
	"context"
)

// Validate loads the application and compiles its plan without touching
// the engine, so a missing entry file or a bad manifest fails here.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	p, err := s.loadProject(ctx, req.SourceRequest)
	if err != nil {
		return ValidateResult{}, err
	}
	defer p.cleanup()
	if _, err := s.compile(ctx, p, false); err != nil {
		return ValidateResult{}, err
	}
	return ValidateResult{
		Name:           p.Name,
		Recipe:         p.Recipe,
		Requirements:   len(p.Manifest.Requirements),
		SystemPackages: len(p.System.Requirements),
		Files:          len(p.Tree.Files),
		Hints:          p.Hints,
	}, nil
}
