package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

// PruneContainers removes managed containers the retention policy does
// not keep.
func (s Service) PruneContainers(ctx context.Context, req PruneRequest) (PruneResult, error) {
	if s.Runtime == nil {
		return PruneResult{}, engineNotConfigured()
	}
	containers, err := s.Runtime.List(ctx, true)
	if err != nil {
		return PruneResult{}, err
	}
	policy := types.ContainerRetentionPolicy{
		KeepLast:       req.KeepLast,
		KeepFor:        req.KeepFor,
		Protect:        req.Protect,
		IncludeRunning: req.IncludeRunning,
		DryRun:         req.DryRun,
	}
	plan := BuildPrunePlan(containers, policy, timeNow(s.Clock))
	if policy.DryRun {
		return PruneResult{
			KeepCount:   len(plan.Keep),
			DeleteCount: len(plan.Delete),
			DryRun:      true,
		}, nil
	}
	var deleted []string
	for _, container := range plan.Delete {
		if err := s.Runtime.Remove(ctx, container.ID); err != nil {
			return PruneResult{}, err
		}
		log.Ctx(ctx).Debug().Str("container", shared.ShortID(container.ID)).Str("name", container.Name).Msg("container removed")
		deleted = append(deleted, container.Name)
	}
	return PruneResult{
		KeepCount:   len(plan.Keep),
		DeleteCount: len(deleted),
		Deleted:     deleted,
	}, nil
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
