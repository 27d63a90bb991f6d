package app

import (
	"sort"
	"strings"
	"time"

	"streamlit-packager/internal/types"
)

// BuildPrunePlan splits containers into those to keep and those to
// remove. Protected names and running containers are always kept unless
// IncludeRunning is set. Of the rest, containers younger than KeepFor
// and the KeepLast newest per image survive.
func BuildPrunePlan(containers []types.ContainerInfo, policy types.ContainerRetentionPolicy, now time.Time) types.ContainerPrunePlan {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	normalized := normalizeRetentionPolicy(policy)
	protected := normalizeSet(normalized.Protect)

	keepIDs := map[string]struct{}{}
	grouped := map[string][]types.ContainerInfo{}
	for _, container := range containers {
		if isProtected(container, protected) {
			keepIDs[container.ID] = struct{}{}
		}
		if container.Running && !normalized.IncludeRunning {
			keepIDs[container.ID] = struct{}{}
		}
		if normalized.KeepFor > 0 && !container.Created.IsZero() {
			if !container.Created.Before(now.Add(-normalized.KeepFor)) {
				keepIDs[container.ID] = struct{}{}
			}
		}
		group := retentionGroupKey(container)
		grouped[group] = append(grouped[group], container)
	}

	if normalized.KeepLast > 0 {
		for _, group := range grouped {
			sorted := append([]types.ContainerInfo(nil), group...)
			sort.Slice(sorted, func(i, j int) bool {
				if !sorted[i].Created.Equal(sorted[j].Created) {
					return sorted[i].Created.After(sorted[j].Created)
				}
				return sorted[i].Name < sorted[j].Name
			})
			limit := normalized.KeepLast
			if limit > len(sorted) {
				limit = len(sorted)
			}
			for i := 0; i < limit; i++ {
				keepIDs[sorted[i].ID] = struct{}{}
			}
		}
	}

	var keep []types.ContainerInfo
	var del []types.ContainerInfo
	for _, container := range containers {
		if _, ok := keepIDs[container.ID]; ok {
			keep = append(keep, container)
		} else {
			del = append(del, container)
		}
	}
	return types.ContainerPrunePlan{Keep: keep, Delete: del}
}

func normalizeRetentionPolicy(policy types.ContainerRetentionPolicy) types.ContainerRetentionPolicy {
	normalized := policy
	if normalized.KeepLast < 0 {
		normalized.KeepLast = 0
	}
	if normalized.KeepFor < 0 {
		normalized.KeepFor = 0
	}
	return normalized
}

func normalizeSet(values []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, value := range values {
		key := strings.ToLower(strings.TrimSpace(value))
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

func isProtected(container types.ContainerInfo, names map[string]struct{}) bool {
	if _, ok := names[strings.ToLower(container.Name)]; ok {
		return true
	}
	_, ok := names[strings.ToLower(container.Image)]
	return ok
}

func retentionGroupKey(container types.ContainerInfo) string {
	if image := strings.TrimSpace(container.Image); image != "" {
		return "image:" + strings.ToLower(image)
	}
	return "default"
}
