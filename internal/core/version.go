package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"streamlit-packager/internal/types"
)

// preparedConstraint is a pre-parsed version constraint ready for
// repeated comparison. For system packages it holds a parsed Debian
// version; for pip it holds a PEP 440 specifier set. Arbitrary equality
// ("===") is compared as a plain string.
type preparedConstraint struct {
	op  types.ConstraintOp
	raw string
	deb debversion.Version
	pep pep440.Specifiers
}

var preReleasePattern = regexp.MustCompile(`(?i)^[^+]*\d[._-]?(a|alpha|b|beta|c|rc|pre|preview|dev)[._-]?\d*`)

func isPreRelease(version string) bool {
	return preReleasePattern.MatchString(version)
}

// versionCache memoizes parsed version objects to avoid repeated parsing
// during constraint evaluation and sorting.
type versionCache struct {
	depType types.DependencyType
	deb     map[string]debversion.Version
	pep     map[string]pep440.Version
	spec    map[string]pep440.Specifiers
}

func newVersionCache(depType types.DependencyType) *versionCache {
	return &versionCache{
		depType: depType,
		deb:     map[string]debversion.Version{},
		pep:     map[string]pep440.Version{},
		spec:    map[string]pep440.Specifiers{},
	}
}

func (c *versionCache) debVersion(value string) (debversion.Version, error) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, nil
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = parsed
	return parsed, nil
}

func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

func (c *versionCache) pepSpec(value string) (pep440.Specifiers, error) {
	if parsed, ok := c.spec[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.NewSpecifiers(value)
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.spec[value] = parsed
	return parsed, nil
}

// compare returns -1, 0, or 1 comparing two version strings using the
// cache's dependency type semantics. Returns 0 on parse errors.
func (c *versionCache) compare(a string, b string) int {
	switch c.depType {
	case types.DependencyTypeApt:
		v1, err := c.debVersion(a)
		if err != nil {
			return 0
		}
		v2, err := c.debVersion(b)
		if err != nil {
			return 0
		}
		return v1.Compare(v2)
	case types.DependencyTypePip:
		v1, err := c.pepVersion(a)
		if err != nil {
			return 0
		}
		v2, err := c.pepVersion(b)
		if err != nil {
			return 0
		}
		return v1.Compare(v2)
	default:
		return 0
	}
}

// bestCompatibleVersion selects the highest version from available that
// satisfies all of the dependency's constraints. Pre-releases are only
// selected when no final release matches or the dependency allows them,
// as pip does.
func bestCompatibleVersion(dep types.Dependency, available []string) (string, error) {
	if len(available) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no available versions for %s", dep.Name))
	}
	cache := newVersionCache(dep.Type)
	parsedConstraints, err := prepareConstraints(dep.Type, dep.Constraints, cache)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, version := range available {
		ok, err := satisfiesAll(dep.Type, version, parsedConstraints, cache)
		if err != nil {
			// Index entries that do not parse are skipped rather than
			// failing the whole selection.
			continue
		}
		if ok {
			candidates = append(candidates, version)
		}
	}
	if len(candidates) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("no compatible version for %s", dep.Name))
	}
	sort.Slice(candidates, func(i, j int) bool {
		return cache.compare(candidates[i], candidates[j]) > 0
	})
	if dep.Type == types.DependencyTypePip && !dep.PreRelease {
		for _, candidate := range candidates {
			if !isPreRelease(candidate) {
				return candidate, nil
			}
		}
	}
	return candidates[0], nil
}

// prepareConstraints parses each constraint's version string upfront so
// it can be reused across multiple candidate comparisons.
func prepareConstraints(depType types.DependencyType, constraints []types.Constraint, cache *versionCache) ([]preparedConstraint, error) {
	var out []preparedConstraint
	for _, constraint := range constraints {
		if constraint.Op == types.ConstraintOpNone {
			continue
		}
		if constraint.Op == types.ConstraintOpArbitrary {
			out = append(out, preparedConstraint{op: constraint.Op, raw: constraint.Version})
			continue
		}
		switch depType {
		case types.DependencyTypeApt:
			parsed, err := cache.debVersion(constraint.Version)
			if err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid version %s for %s", constraint.Version, constraint.Name)).
					WithCause(err)
			}
			out = append(out, preparedConstraint{op: constraint.Op, deb: parsed})
		case types.DependencyTypePip:
			spec, err := cache.pepSpec(toPep440Spec(constraint))
			if err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid version specifier %s for %s", toPep440Spec(constraint), constraint.Name)).
					WithCause(err)
			}
			out = append(out, preparedConstraint{op: constraint.Op, pep: spec})
		default:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("unsupported dependency type")
		}
	}
	return out, nil
}

func satisfiesAll(depType types.DependencyType, version string, constraints []preparedConstraint, cache *versionCache) (bool, error) {
	if len(constraints) == 0 {
		return true, nil
	}
	switch depType {
	case types.DependencyTypeApt:
		return satisfiesDeb(version, constraints, cache)
	case types.DependencyTypePip:
		return satisfiesPep440(version, constraints, cache)
	default:
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported dependency type")
	}
}

func satisfiesDeb(version string, constraints []preparedConstraint, cache *versionCache) (bool, error) {
	v, err := cache.debVersion(version)
	if err != nil {
		return false, err
	}
	for _, constraint := range constraints {
		c := constraint.deb
		switch constraint.op {
		case types.ConstraintOpArbitrary:
			if version != constraint.raw {
				return false, nil
			}
		case types.ConstraintOpEq, types.ConstraintOpEq2:
			if !v.Equal(c) {
				return false, nil
			}
		case types.ConstraintOpNe:
			if v.Equal(c) {
				return false, nil
			}
		case types.ConstraintOpGte:
			if v.LessThan(c) {
				return false, nil
			}
		case types.ConstraintOpLte:
			if v.GreaterThan(c) {
				return false, nil
			}
		case types.ConstraintOpGt:
			if !v.GreaterThan(c) {
				return false, nil
			}
		case types.ConstraintOpLt:
			if !v.LessThan(c) {
				return false, nil
			}
		default:
			return false, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("unsupported constraint operator")
		}
	}
	return true, nil
}

func satisfiesPep440(version string, constraints []preparedConstraint, cache *versionCache) (bool, error) {
	parsed, err := cache.pepVersion(version)
	if err != nil {
		return false, err
	}
	for _, constraint := range constraints {
		if constraint.op == types.ConstraintOpArbitrary {
			if version != constraint.raw {
				return false, nil
			}
			continue
		}
		if !constraint.pep.Check(parsed) {
			return false, nil
		}
	}
	return true, nil
}

// toPep440Spec converts an internal constraint to a PEP 440 specifier
// string (e.g. ">= 1.0", "~= 2.3").
func toPep440Spec(constraint types.Constraint) string {
	op := string(constraint.Op)
	if constraint.Op == types.ConstraintOpEq {
		op = "=="
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", op, constraint.Version))
}
