package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
)

var commitHashPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

type GitSourceAdapter struct{}

func NewGitSourceAdapter() GitSourceAdapter {
	return GitSourceAdapter{}
}

// Clone checks out url into dir and returns the checkout directory. A
// temporary directory is created when dir is empty. ref may be a
// branch, a tag, a full reference name or a commit hash.
func (a GitSourceAdapter) Clone(ctx context.Context, url string, ref string, dir string) (string, error) {
	url = strings.TrimSpace(url)
	ref = strings.TrimSpace(ref)
	if url == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("git source url is required")
	}
	if dir == "" {
		tempDir, err := os.MkdirTemp("", "streamlit-packager-src-")
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create temp directory for git source").
				WithCause(err)
		}
		dir = tempDir
	}

	if ref != "" && commitHashPattern.MatchString(ref) {
		return dir, a.cloneAtCommit(ctx, url, ref, dir)
	}

	var lastErr error
	for _, name := range candidateReferences(ref) {
		if err := resetDir(dir); err != nil {
			return "", err
		}
		_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           url,
			ReferenceName: name,
			SingleBranch:  name != "",
			Depth:         1,
		})
		if err == nil {
			log.Ctx(ctx).Debug().Str("url", url).Str("ref", name.String()).Str("dir", dir).Msg("git source cloned")
			return dir, nil
		}
		lastErr = err
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("failed to clone git source %s", url)).
		WithCause(lastErr)
}

func (a GitSourceAdapter) cloneAtCommit(ctx context.Context, url string, hash string, dir string) error {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to clone git source %s", url)).
			WithCause(err)
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("commit not found: " + hash).
			WithCause(err)
	}
	tree, err := repo.Worktree()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open worktree").
			WithCause(err)
	}
	if err := tree.Checkout(&git.CheckoutOptions{Hash: *resolved}); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to check out " + hash).
			WithCause(err)
	}
	return nil
}

func candidateReferences(ref string) []plumbing.ReferenceName {
	switch {
	case ref == "":
		return []plumbing.ReferenceName{""}
	case strings.HasPrefix(ref, "refs/"):
		return []plumbing.ReferenceName{plumbing.ReferenceName(ref)}
	default:
		return []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(ref),
			plumbing.NewTagReferenceName(ref),
		}
	}
}

// resetDir empties dir so a failed clone attempt can be retried.
func resetDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read checkout directory").
			WithCause(err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to clean checkout directory").
				WithCause(err)
		}
	}
	return nil
}

var _ ports.GitSourcePort = GitSourceAdapter{}
