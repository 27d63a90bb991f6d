package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"streamlit-packager/internal/types"
)

func containerNames(containers []types.ContainerInfo) []string {
	names := make([]string, 0, len(containers))
	for _, c := range containers {
		names = append(names, c.Name)
	}
	return names
}

func TestBuildPrunePlan(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	containers := []types.ContainerInfo{
		{ID: "1", Name: "app-old", Image: "sample:1", Created: now.Add(-72 * time.Hour)},
		{ID: "2", Name: "app-mid", Image: "sample:1", Created: now.Add(-48 * time.Hour)},
		{ID: "3", Name: "app-new", Image: "sample:1", Created: now.Add(-24 * time.Hour)},
		{ID: "4", Name: "app-live", Image: "sample:1", Created: now.Add(-96 * time.Hour), Running: true},
		{ID: "5", Name: "other", Image: "other:1", Created: now.Add(-96 * time.Hour)},
		{ID: "6", Name: "fresh", Image: "other:1", Created: now.Add(-time.Hour)},
		{ID: "7", Name: "pinned", Image: "pinned:1", Created: now.Add(-500 * time.Hour)},
	}

	tests := []struct {
		name   string
		policy types.ContainerRetentionPolicy
		keep   []string
		delete []string
	}{
		{
			name:   "nothing kept but running",
			policy: types.ContainerRetentionPolicy{},
			keep:   []string{"app-live"},
			delete: []string{"app-old", "app-mid", "app-new", "other", "fresh", "pinned"},
		},
		{
			name:   "keep last per image",
			policy: types.ContainerRetentionPolicy{KeepLast: 1, Protect: []string{"PINNED"}},
			keep:   []string{"app-new", "app-live", "fresh", "pinned"},
			delete: []string{"app-old", "app-mid", "other"},
		},
		{
			name:   "keep for duration",
			policy: types.ContainerRetentionPolicy{KeepFor: 36 * time.Hour},
			keep:   []string{"app-new", "app-live", "fresh"},
			delete: []string{"app-old", "app-mid", "other", "pinned"},
		},
		{
			name:   "include running",
			policy: types.ContainerRetentionPolicy{KeepLast: 1, IncludeRunning: true, Protect: []string{"pinned:1"}},
			keep:   []string{"app-new", "fresh", "pinned"},
			delete: []string{"app-old", "app-mid", "app-live", "other"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := BuildPrunePlan(containers, tc.policy, now)
			assert.ElementsMatch(t, tc.keep, containerNames(plan.Keep))
			assert.ElementsMatch(t, tc.delete, containerNames(plan.Delete))
		})
	}
}
