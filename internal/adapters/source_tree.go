package adapters

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	digest "github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

const dockerignoreFile = ".dockerignore"

// defaultIgnore is applied before the tree's own .dockerignore.
var defaultIgnore = []string{".git"}

type SourceTreeAdapter struct{}

func NewSourceTreeAdapter() SourceTreeAdapter {
	return SourceTreeAdapter{}
}

// Scan lists the files under root that end up in the build context,
// honoring .dockerignore, and digests their contents.
func (a SourceTreeAdapter) Scan(ctx context.Context, root string, entry string) (types.SourceTree, error) {
	if root == "" {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("source root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid source root").
			WithCause(err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("source directory not found: " + root).
			WithCause(err)
	}
	patterns, err := readIgnorePatterns(abs)
	if err != nil {
		return types.SourceTree{}, err
	}
	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid .dockerignore pattern").
			WithCause(err)
	}

	tree := types.SourceTree{
		Root:    abs,
		Ignore:  patterns,
		Entry:   shared.CleanRel(entry),
		Digests: map[string]string{},
	}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == abs {
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ignored, err := matcher.MatchesOrParentMatches(rel)
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Exclusion patterns can re-include files below an ignored
			// directory, so only prune when there are none.
			if ignored && !matcher.Exclusions() {
				return filepath.SkipDir
			}
			return nil
		}
		if ignored {
			return nil
		}
		sum, err := digestFile(path, d)
		if err != nil {
			return err
		}
		tree.Files = append(tree.Files, rel)
		tree.Digests[rel] = sum
		return nil
	})
	if err != nil {
		return types.SourceTree{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan source tree").
			WithCause(err)
	}
	sort.Strings(tree.Files)
	tree.HasEntry = tree.Contains(tree.Entry)
	log.Ctx(ctx).Debug().
		Str("root", abs).
		Int("files", len(tree.Files)).
		Bool("entry", tree.HasEntry).
		Msg("source tree scanned")
	return tree, nil
}

func readIgnorePatterns(root string) ([]string, error) {
	patterns := append([]string{}, defaultIgnore...)
	f, err := os.Open(filepath.Join(root, dockerignoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return patterns, nil
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open .dockerignore").
			WithCause(err)
	}
	defer f.Close()
	extra, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse .dockerignore").
			WithCause(err)
	}
	return append(patterns, extra...), nil
}

func digestFile(path string, d fs.DirEntry) (string, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return "", err
		}
		return digest.FromString(target).String(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	sum, err := digest.FromReader(f)
	if err != nil {
		return "", err
	}
	return sum.String(), nil
}

var _ ports.SourceTreePort = SourceTreeAdapter{}
