package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

const (
	RequirementsLockName = "requirements.lock"
	PackagesLockName     = "packages.lock"
)

// LockOutputAdapter writes the checked versions in the manifest formats
// they came from, so the lock files can replace the manifests.
type LockOutputAdapter struct {
	Dir string
}

func NewLockOutputAdapter(dir string) LockOutputAdapter {
	return LockOutputAdapter{Dir: dir}
}

// WriteLock writes requirements.lock and, when system packages were
// checked, packages.lock. It returns the written paths.
func (a LockOutputAdapter) WriteLock(resolved []types.ResolvedDependency) ([]string, error) {
	var aptLines []string
	var pipLines []string
	for _, dep := range resolved {
		switch dep.Type {
		case types.DependencyTypeApt:
			aptLines = append(aptLines, fmt.Sprintf("%s=%s", dep.Package, dep.Version))
		case types.DependencyTypePip:
			line := fmt.Sprintf("%s==%s", dep.Package, dep.Version)
			if dep.Marker != "" {
				line += "; " + dep.Marker
			}
			pipLines = append(pipLines, line)
		}
	}
	sort.Strings(aptLines)
	sort.Strings(pipLines)

	if strings.TrimSpace(a.Dir) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	var written []string
	pipPath := filepath.Join(a.Dir, RequirementsLockName)
	if err := writeLines(pipPath, pipLines); err != nil {
		return nil, err
	}
	written = append(written, pipPath)
	if len(aptLines) > 0 {
		aptPath := filepath.Join(a.Dir, PackagesLockName)
		if err := writeLines(aptPath, aptLines); err != nil {
			return nil, err
		}
		written = append(written, aptPath)
	}
	return written, nil
}

func writeLines(path string, lines []string) error {
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", filepath.Base(path))).
			WithCause(err)
	}
	return nil
}

var _ ports.LockPort = LockOutputAdapter{}
