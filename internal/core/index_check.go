package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

const defaultIndexWorkers = 4

// CheckManifest asks index for the versions of every requirement and
// selects the best compatible one, failing on the first requirement
// (in manifest order) that cannot be satisfied. URL requirements are
// skipped. A manifest carrying --pre allows pre-releases.
func CheckManifest(ctx context.Context, manifest types.Manifest, index ports.PackageIndexPort, workers int) ([]types.ResolvedDependency, error) {
	var reqs []types.Requirement
	for _, req := range manifest.Requirements {
		if req.URL != "" {
			log.Ctx(ctx).Debug().Str("package", req.Name).Msg("skipping URL requirement")
			continue
		}
		reqs = append(reqs, req)
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = defaultIndexWorkers
	}
	if len(reqs) < workers {
		workers = len(reqs)
	}

	type checkResult struct {
		version string
		err     error
	}
	results := make([]checkResult, len(reqs))
	tasks := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				if ctx.Err() != nil {
					results[idx] = checkResult{err: ctx.Err()}
					continue
				}
				dep := reqs[idx].Dependency()
				dep.PreRelease = manifest.AllowsPreReleases()
				available, err := index.AvailableVersions(ctx, dep.Type, dep.Name)
				if err != nil {
					results[idx] = checkResult{err: err}
					continue
				}
				version, err := bestCompatibleVersion(dep, available)
				results[idx] = checkResult{version: version, err: err}
			}
		}()
	}
	for idx := range reqs {
		tasks <- idx
	}
	close(tasks)
	wg.Wait()

	resolved := make([]types.ResolvedDependency, 0, len(reqs))
	for idx, result := range results {
		if result.err != nil {
			return nil, result.err
		}
		resolved = append(resolved, types.ResolvedDependency{
			Type:    reqs[idx].Type,
			Package: reqs[idx].Normalized,
			Version: result.version,
			Marker:  reqs[idx].Marker,
		})
	}
	log.Ctx(ctx).Debug().Int("resolved", len(resolved)).Str("manifest", manifest.Path).Msg("manifest checked against index")
	return resolved, nil
}
