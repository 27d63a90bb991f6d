// Package shared provides small helpers used across the streamlit-packager
// packages.
package shared

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

var pipNameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizePipName lowercases a Python package name and collapses runs
// of hyphens, underscores and dots into one hyphen (PEP 503).
func NormalizePipName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return pipNameSeparators.ReplaceAllString(lower, "-")
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// ShortID truncates a container or image ID to the 12 characters docker
// prints, dropping any "sha256:" prefix.
func ShortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// CleanRel normalizes a relative path to slash form without a leading
// "./". The empty path and "." both become ".".
func CleanRel(value string) string {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimSpace(value), "\\", "/"))
	return strings.TrimPrefix(cleaned, "./")
}

// ErrorMessage returns the message of an errbuilder error without its
// cause, or err.Error() for any other error.
func ErrorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
