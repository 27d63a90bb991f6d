package app

import (
	"context"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/adapters"
	"streamlit-packager/internal/core"
	"streamlit-packager/internal/ports"
)

// Check confirms every pinned requirement can be satisfied by the
// package index before anything is built. Without an explicit index URL
// the manifest's own --index-url and --extra-index-url options apply.
// With an offline repo index that carries apt data the system packages
// are checked too.
func (s Service) Check(ctx context.Context, req CheckRequest) (CheckResult, error) {
	p, err := s.loadProject(ctx, req.SourceRequest)
	if err != nil {
		return CheckResult{}, err
	}
	defer p.cleanup()

	var index ports.PackageIndexPort
	checkSystem := false
	if repoIndex := strings.TrimSpace(req.RepoIndex); repoIndex != "" {
		fileIndex := adapters.NewRepoIndexFileAdapter(repoIndex)
		hasApt, err := fileIndex.HasSystemPackages()
		if err != nil {
			return CheckResult{}, err
		}
		index = fileIndex
		checkSystem = hasApt
	} else {
		indexURL := strings.TrimSpace(req.PipIndexURL)
		if indexURL == "" {
			indexURL = p.Manifest.IndexURL()
		}
		extras := p.Manifest.ExtraIndexURLs()
		log.Ctx(ctx).Debug().Str("index", indexURL).Strs("extra", extras).Msg("checking against pip index")
		index = adapters.NewPipIndexAdapter(adapters.PipIndexConfig{
			URL:              indexURL,
			ExtraURLs:        extras,
			User:             req.PipUser,
			APIKey:           req.PipAPIKey,
			HTTPTimeoutSec:   req.HTTPTimeoutSec,
			HTTPRetries:      req.HTTPRetries,
			HTTPRetryDelayMs: req.HTTPRetryDelayMs,
		})
	}

	resolved, err := core.CheckManifest(ctx, p.Manifest, index, req.Workers)
	if err != nil {
		return CheckResult{}, err
	}
	if checkSystem && !p.System.Empty() {
		system, err := core.CheckManifest(ctx, p.System, index, req.Workers)
		if err != nil {
			return CheckResult{}, err
		}
		resolved = append(resolved, system...)
	} else if !p.System.Empty() {
		log.Ctx(ctx).Warn().Str("manifest", p.System.Path).Msg("system packages not checked: index has no apt data")
	}
	result := CheckResult{Resolved: resolved}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return result, nil
	}
	lockFiles, err := adapters.NewLockOutputAdapter(outputDir).WriteLock(resolved)
	if err != nil {
		return CheckResult{}, err
	}
	createdAt := timeNow(s.Clock).UTC().Format(time.RFC3339)
	sbomPath, err := adapters.NewSBOMWriterAdapter(outputDir).WriteSBOM(p.Recipe.Image, createdAt, resolved)
	if err != nil {
		return CheckResult{}, err
	}
	result.LockFiles = lockFiles
	result.SBOMPath = sbomPath
	log.Ctx(ctx).Info().Strs("locks", lockFiles).Str("sbom", sbomPath).Msg("dependency lock written")
	return result, nil
}

// Index snapshots the versions the pip index offers for the manifest's
// packages into a repo index file usable by offline checks.
func (s Service) Index(ctx context.Context, req IndexRequest) (IndexResult, error) {
	output := strings.TrimSpace(req.Output)
	if output == "" {
		return IndexResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repo index output path is required")
	}
	names := append([]string(nil), req.Packages...)
	if len(names) == 0 || req.RecipePath != "" || req.RepoURL != "" || req.Overrides.Source != "" {
		p, err := s.loadProject(ctx, req.SourceRequest)
		if err != nil {
			return IndexResult{}, err
		}
		defer p.cleanup()
		names = append(names, p.Manifest.Names()...)
	}
	pipIndex := adapters.NewPipIndexAdapter(adapters.PipIndexConfig{
		URL:              req.PipIndexURL,
		User:             req.PipUser,
		APIKey:           req.PipAPIKey,
		HTTPTimeoutSec:   req.HTTPTimeoutSec,
		HTTPRetries:      req.HTTPRetries,
		HTTPRetryDelayMs: req.HTTPRetryDelayMs,
	})
	index, err := pipIndex.Snapshot(ctx, names, req.Workers)
	if err != nil {
		return IndexResult{}, err
	}
	if err := s.RepoIndexWriter.Write(output, index); err != nil {
		return IndexResult{}, err
	}
	return IndexResult{OutputPath: output, PipCount: len(index.Pip)}, nil
}
