package types

import "strings"

type Constraint struct {
	Name    string
	Op      ConstraintOp
	Version string
	Source  string
}

type Dependency struct {
	Name        string
	Type        DependencyType
	Constraints []Constraint
	// PreRelease lets version selection prefer pre-releases like pip --pre.
	PreRelease bool
}

// Requirement is a single package entry of a dependency manifest.
type Requirement struct {
	Raw         string
	Name        string
	Normalized  string
	Extras      []string
	Constraints []Constraint
	Marker      string
	URL         string
	Type        DependencyType
	Line        int
	Source      string
}

// Dependency returns the requirement as a typed dependency for version
// selection.
func (r Requirement) Dependency() Dependency {
	return Dependency{
		Name:        r.Normalized,
		Type:        r.Type,
		Constraints: r.Constraints,
	}
}

// Specifier renders the constraints as a comma-separated specifier set,
// e.g. ">=1.30,<2".
func (r Requirement) Specifier() string {
	parts := make([]string, 0, len(r.Constraints))
	for _, c := range r.Constraints {
		if c.Op == ConstraintOpNone {
			continue
		}
		parts = append(parts, string(c.Op)+c.Version)
	}
	return strings.Join(parts, ",")
}

// Pinned reports whether the requirement names exactly one version.
func (r Requirement) Pinned() bool {
	if len(r.Constraints) != 1 {
		return false
	}
	switch r.Constraints[0].Op {
	case ConstraintOpEq, ConstraintOpEq2, ConstraintOpArbitrary:
		return !strings.Contains(r.Constraints[0].Version, "*")
	default:
		return false
	}
}
