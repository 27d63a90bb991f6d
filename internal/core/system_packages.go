package core

import (
	"fmt"
	"regexp"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"

	"streamlit-packager/internal/types"
)

var debPackageName = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)

// ParseSystemPackageLine parses one line of a packages.txt manifest: a
// Debian package name optionally pinned as "name=version". It returns nil
// for blank and comment lines.
func ParseSystemPackageLine(line string, lineNo int, source string) (*types.Requirement, error) {
	line = stripComment(line)
	if line == "" {
		return nil, nil
	}
	if strings.ContainsAny(line, " \t") {
		return nil, lineError(source, lineNo, fmt.Sprintf("expected one package per line, got %q", line))
	}
	constraint, err := ParseConstraint(line, source)
	if err != nil {
		return nil, lineError(source, lineNo, err.Error())
	}
	if constraint.Op != types.ConstraintOpNone && constraint.Op != types.ConstraintOpEq {
		return nil, lineError(source, lineNo, fmt.Sprintf("only name=version pins are supported, got %q", line))
	}
	if !debPackageName.MatchString(constraint.Name) {
		return nil, lineError(source, lineNo, fmt.Sprintf("invalid package name %q", constraint.Name))
	}
	req := &types.Requirement{
		Raw:        line,
		Name:       constraint.Name,
		Normalized: constraint.Name,
		Type:       types.DependencyTypeApt,
		Line:       lineNo,
		Source:     source,
	}
	if constraint.Op == types.ConstraintOpEq {
		if _, err := debversion.NewVersion(constraint.Version); err != nil {
			return nil, lineError(source, lineNo, fmt.Sprintf("invalid version %q for %s", constraint.Version, constraint.Name)).WithCause(err)
		}
		req.Constraints = []types.Constraint{constraint}
	}
	return req, nil
}

// AptInstallArgs renders the system packages as apt-get install
// arguments, keeping pins as "name=version".
func AptInstallArgs(manifest types.Manifest) []string {
	args := make([]string, 0, len(manifest.Requirements))
	for _, req := range manifest.Requirements {
		if len(req.Constraints) == 1 {
			args = append(args, req.Name+"="+req.Constraints[0].Version)
			continue
		}
		args = append(args, req.Name)
	}
	return args
}
