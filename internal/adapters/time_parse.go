package adapters

import (
	"strings"
	"time"
)

// parseEngineTime reads the timestamps the engine reports. Unset values
// come back as the zero year and map to the zero time.
func parseEngineTime(value string) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05 -0700 MST",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			if parsed.Year() <= 1 {
				return time.Time{}
			}
			return parsed.UTC()
		}
	}
	return time.Time{}
}
