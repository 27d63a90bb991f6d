package core

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

// ManifestLoader reads dependency manifests out of a source root,
// flattening "-r" includes into a single requirement list.
type ManifestLoader struct {
	files ports.ManifestSourcePort
}

func NewManifestLoader(files ports.ManifestSourcePort) ManifestLoader {
	return ManifestLoader{files: files}
}

// LoadRequirements reads a pip requirements file and every file it
// includes. Included and constraint files are listed in Files so they
// can be staged next to the manifest.
func (l ManifestLoader) LoadRequirements(ctx context.Context, root string, rel string) (types.Manifest, error) {
	rel = shared.CleanRel(rel)
	manifest := types.Manifest{
		Path: rel,
		Type: types.DependencyTypePip,
	}
	state := &includeState{seen: map[string]bool{}}
	if err := l.readRequirements(ctx, root, rel, &manifest, state); err != nil {
		return types.Manifest{}, err
	}
	log.Ctx(ctx).Debug().
		Str("manifest", rel).
		Int("files", len(manifest.Files)).
		Int("requirements", len(manifest.Requirements)).
		Msg("requirements loaded")
	return manifest, nil
}

type includeState struct {
	stack []string
	seen  map[string]bool
}

func (l ManifestLoader) readRequirements(ctx context.Context, root string, rel string, manifest *types.Manifest, state *includeState) error {
	for _, open := range state.stack {
		if open == rel {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("requirements include cycle: %s -> %s", strings.Join(state.stack, " -> "), rel))
		}
	}
	if state.seen[rel] {
		return nil
	}
	data, err := l.files.ReadManifest(root, rel)
	if err != nil {
		return err
	}
	state.seen[rel] = true
	state.stack = append(state.stack, rel)
	defer func() { state.stack = state.stack[:len(state.stack)-1] }()

	manifest.Files = append(manifest.Files, rel)
	manifest.Content = append(manifest.Content, data...)

	lines, err := joinContinuations(data)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read " + rel).
			WithCause(err)
	}
	for _, line := range lines {
		parsed, err := ParseRequirementLine(line.text, line.number, rel)
		if err != nil {
			return err
		}
		switch {
		case parsed.Requirement != nil:
			manifest.Requirements = append(manifest.Requirements, *parsed.Requirement)
		case parsed.Include != "":
			include, err := resolveInclude(rel, parsed.Include, line.number)
			if err != nil {
				return err
			}
			if err := l.readRequirements(ctx, root, include, manifest, state); err != nil {
				return err
			}
		case parsed.Option != nil:
			manifest.Options = append(manifest.Options, *parsed.Option)
			if parsed.Option.Flag == "--constraint" {
				constraintFile, err := resolveInclude(rel, parsed.Option.Value, line.number)
				if err != nil {
					return err
				}
				if err := l.stageFile(root, constraintFile, manifest, state); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// stageFile records a referenced file without parsing it.
func (l ManifestLoader) stageFile(root string, rel string, manifest *types.Manifest, state *includeState) error {
	if state.seen[rel] {
		return nil
	}
	data, err := l.files.ReadManifest(root, rel)
	if err != nil {
		return err
	}
	state.seen[rel] = true
	manifest.Files = append(manifest.Files, rel)
	manifest.Content = append(manifest.Content, data...)
	return nil
}

// LoadSystemPackages reads a packages.txt manifest. A missing file is not
// an error and reports false.
func (l ManifestLoader) LoadSystemPackages(ctx context.Context, root string, rel string) (types.Manifest, bool, error) {
	rel = shared.CleanRel(rel)
	data, err := l.files.ReadManifest(root, rel)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			return types.Manifest{}, false, nil
		}
		return types.Manifest{}, false, err
	}
	manifest := types.Manifest{
		Path:    rel,
		Type:    types.DependencyTypeApt,
		Files:   []string{rel},
		Content: data,
	}
	lines, err := joinContinuations(data)
	if err != nil {
		return types.Manifest{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read " + rel).
			WithCause(err)
	}
	for _, line := range lines {
		req, err := ParseSystemPackageLine(line.text, line.number, rel)
		if err != nil {
			return types.Manifest{}, false, err
		}
		if req != nil {
			manifest.Requirements = append(manifest.Requirements, *req)
		}
	}
	log.Ctx(ctx).Debug().Str("manifest", rel).Int("packages", len(manifest.Requirements)).Msg("system packages loaded")
	return manifest, true, nil
}

// resolveInclude resolves a referenced file against the including file's
// directory. References that leave the source root cannot be staged.
func resolveInclude(from string, ref string, lineNo int) (string, error) {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/")
	if strings.Contains(ref, "://") || path.IsAbs(ref) {
		return "", lineError(from, lineNo, fmt.Sprintf("referenced file %s must be a relative path inside the source tree", ref))
	}
	resolved := path.Clean(path.Join(path.Dir(from), ref))
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", lineError(from, lineNo, fmt.Sprintf("referenced file %s is outside the source tree", ref))
	}
	return resolved, nil
}

type manifestLine struct {
	number int
	text   string
}

// joinContinuations splits data into logical lines, joining lines that
// end in a backslash. Each logical line keeps the number of its first
// physical line.
func joinContinuations(data []byte) ([]manifestLine, error) {
	var out []manifestLine
	var pending strings.Builder
	start := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimRight(scanner.Text(), " \t\r")
		if pending.Len() == 0 {
			start = number
		}
		if strings.HasSuffix(text, "\\") {
			pending.WriteString(strings.TrimSuffix(text, "\\"))
			pending.WriteString(" ")
			continue
		}
		pending.WriteString(text)
		out = append(out, manifestLine{number: start, text: pending.String()})
		pending.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pending.Len() > 0 {
		out = append(out, manifestLine{number: start, text: pending.String()})
	}
	return out, nil
}
