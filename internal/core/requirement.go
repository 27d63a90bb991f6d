package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

// ParsedLine is the result of parsing one requirements file line. At most
// one field is set; all are empty for blank and comment lines.
type ParsedLine struct {
	Requirement *types.Requirement
	Option      *types.InstallerOption
	Include     string
}

// Empty reports whether the line carried nothing.
func (p ParsedLine) Empty() bool {
	return p.Requirement == nil && p.Option == nil && p.Include == ""
}

var (
	requirementHead = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(\[[^\]]*\])?\s*(.*)$`)
	eggFragment     = regexp.MustCompile(`#egg=([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)
)

var urlPrefixes = []string{"git+", "hg+", "svn+", "bzr+", "http://", "https://", "file:"}

// installer options that take a value
var valueOptions = map[string]string{
	"-i":                "--index-url",
	"--index-url":       "--index-url",
	"--extra-index-url": "--extra-index-url",
	"--trusted-host":    "--trusted-host",
	"-f":                "--find-links",
	"--find-links":      "--find-links",
	"-c":                "--constraint",
	"--constraint":      "--constraint",
	"--no-binary":       "--no-binary",
	"--only-binary":     "--only-binary",
}

// installer options without a value
var flagOptions = map[string]bool{
	"--pre":            true,
	"--prefer-binary":  true,
	"--require-hashes": true,
	"--no-index":       true,
}

// ParseRequirementLine parses one line of a pip requirements file. Line
// continuations must already be joined by the caller.
func ParseRequirementLine(line string, lineNo int, source string) (ParsedLine, error) {
	line = stripComment(line)
	if line == "" {
		return ParsedLine{}, nil
	}
	if strings.HasPrefix(line, "-") {
		return parseOptionLine(line, lineNo, source)
	}
	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(line, prefix) {
			return parseURLLine(line, lineNo, source)
		}
	}

	line = stripHashes(line)
	match := requirementHead.FindStringSubmatch(line)
	if match == nil {
		return ParsedLine{}, lineError(source, lineNo, fmt.Sprintf("invalid requirement %q", line))
	}
	req := &types.Requirement{
		Raw:        line,
		Name:       match[1],
		Normalized: shared.NormalizePipName(match[1]),
		Extras:     parseExtras(match[2]),
		Type:       types.DependencyTypePip,
		Line:       lineNo,
		Source:     source,
	}
	rest := strings.TrimSpace(match[3])
	if strings.HasPrefix(rest, "@") {
		url, marker := splitMarker(strings.TrimSpace(strings.TrimPrefix(rest, "@")))
		if url == "" {
			return ParsedLine{}, lineError(source, lineNo, fmt.Sprintf("missing URL for %s", req.Name))
		}
		req.URL = url
		req.Marker = marker
		return ParsedLine{Requirement: req}, nil
	}

	specifiers, marker := splitMarker(rest)
	req.Marker = marker
	specifiers = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(specifiers, "("), ")"))
	if specifiers == "" {
		return ParsedLine{Requirement: req}, nil
	}
	for _, clause := range strings.Split(specifiers, ",") {
		constraint, err := ParseSpecifierClause(req.Normalized, clause, source)
		if err != nil {
			return ParsedLine{}, lineError(source, lineNo, fmt.Sprintf("invalid version specifier for %s: %q", req.Name, strings.TrimSpace(clause)))
		}
		if constraint.Op != types.ConstraintOpArbitrary {
			if _, err := pep440.NewSpecifiers(toPep440Spec(constraint)); err != nil {
				return ParsedLine{}, lineError(source, lineNo, fmt.Sprintf("invalid version %q for %s", constraint.Version, req.Name)).WithCause(err)
			}
		}
		req.Constraints = append(req.Constraints, constraint)
	}
	return ParsedLine{Requirement: req}, nil
}

func parseOptionLine(line string, lineNo int, source string) (ParsedLine, error) {
	flag, value := splitOption(line)
	switch flag {
	case "-r", "--requirement":
		if value == "" {
			return ParsedLine{}, lineError(source, lineNo, "missing file for "+flag)
		}
		return ParsedLine{Include: value}, nil
	case "-e", "--editable":
		return ParsedLine{}, lineError(source, lineNo, "editable requirements are not supported in an image build")
	}
	if canonical, ok := valueOptions[flag]; ok {
		if value == "" {
			return ParsedLine{}, lineError(source, lineNo, "missing value for "+flag)
		}
		return ParsedLine{Option: &types.InstallerOption{Flag: canonical, Value: value}}, nil
	}
	if flagOptions[flag] {
		return ParsedLine{Option: &types.InstallerOption{Flag: flag}}, nil
	}
	return ParsedLine{}, lineError(source, lineNo, fmt.Sprintf("unsupported option %s", flag))
}

func parseURLLine(line string, lineNo int, source string) (ParsedLine, error) {
	url, marker := splitMarker(line)
	egg := eggFragment.FindStringSubmatch(url)
	if egg == nil {
		return ParsedLine{}, lineError(source, lineNo, fmt.Sprintf("URL requirement needs #egg=<name> or \"name @ url\": %s", url))
	}
	return ParsedLine{Requirement: &types.Requirement{
		Raw:        line,
		Name:       egg[1],
		Normalized: shared.NormalizePipName(egg[1]),
		URL:        url,
		Marker:     marker,
		Type:       types.DependencyTypePip,
		Line:       lineNo,
		Source:     source,
	}}, nil
}

// splitOption accepts "--flag value", "--flag=value" and "-rfile".
func splitOption(line string) (string, string) {
	if idx := strings.IndexAny(line, " \t="); idx >= 0 {
		return line[:idx], strings.TrimSpace(line[idx+1:])
	}
	if len(line) > 2 && !strings.HasPrefix(line, "--") {
		return line[:2], strings.TrimSpace(line[2:])
	}
	return line, ""
}

func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	for _, sep := range []string{" #", "\t#"} {
		if idx := strings.Index(line, sep); idx >= 0 {
			line = line[:idx]
		}
	}
	return strings.TrimSpace(line)
}

func stripHashes(line string) string {
	fields := strings.Fields(line)
	kept := fields[:0]
	for _, field := range fields {
		if strings.HasPrefix(field, "--hash") {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

func splitMarker(value string) (string, string) {
	idx := strings.Index(value, ";")
	if idx < 0 {
		return strings.TrimSpace(value), ""
	}
	return strings.TrimSpace(value[:idx]), strings.TrimSpace(value[idx+1:])
}

func parseExtras(group string) []string {
	group = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(group, "["), "]"))
	if group == "" {
		return nil
	}
	var extras []string
	for _, extra := range strings.Split(group, ",") {
		extra = strings.TrimSpace(extra)
		if extra != "" {
			extras = append(extras, shared.NormalizePipName(extra))
		}
	}
	return extras
}

func lineError(source string, lineNo int, msg string) *errbuilder.ErrBuilder {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s:%d: %s", source, lineNo, msg))
}
