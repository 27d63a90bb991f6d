package adapters

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"
	"gopkg.in/yaml.v3"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

// RepoIndexFileAdapter serves package versions from an offline YAML
// snapshot instead of a live index.
type RepoIndexFileAdapter struct {
	Path string

	once   sync.Once
	cached types.RepoIndexFile
	err    error
}

type RepoIndexWriterAdapter struct{}

func NewRepoIndexFileAdapter(path string) *RepoIndexFileAdapter {
	return &RepoIndexFileAdapter{Path: path}
}

func NewRepoIndexWriterAdapter() RepoIndexWriterAdapter {
	return RepoIndexWriterAdapter{}
}

func (a *RepoIndexFileAdapter) AvailableVersions(_ context.Context, depType types.DependencyType, name string) ([]string, error) {
	index, err := a.load()
	if err != nil {
		return nil, err
	}
	switch depType {
	case types.DependencyTypeApt:
		return index.Apt[name], nil
	case types.DependencyTypePip:
		if versions, ok := index.Pip[name]; ok && len(versions) > 0 {
			return versions, nil
		}
		return index.Pip[shared.NormalizePipName(name)], nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown dependency type")
	}
}

// HasSystemPackages reports whether the snapshot lists any apt packages.
func (a *RepoIndexFileAdapter) HasSystemPackages() (bool, error) {
	index, err := a.load()
	if err != nil {
		return false, err
	}
	return len(index.Apt) > 0, nil
}

func (a *RepoIndexFileAdapter) load() (types.RepoIndexFile, error) {
	a.once.Do(func() {
		a.cached, a.err = readRepoIndex(a.Path)
	})
	return a.cached, a.err
}

func readRepoIndex(path string) (types.RepoIndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RepoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("repo index file not found").
			WithCause(err)
	}
	var idx types.RepoIndexFile
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return types.RepoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid repo index format").
			WithCause(err)
	}
	if idx.Pip == nil {
		idx.Pip = map[string][]string{}
	}
	if idx.Apt == nil {
		idx.Apt = map[string][]string{}
	}
	normalized := make(map[string][]string, len(idx.Pip))
	for name, versions := range idx.Pip {
		key := shared.NormalizePipName(name)
		normalized[key] = sortPep440Versions(uniqueStrings(append(normalized[key], versions...)))
	}
	idx.Pip = normalized
	for name, versions := range idx.Apt {
		idx.Apt[name] = sortDebVersions(uniqueStrings(versions))
	}
	return idx, nil
}

func (a RepoIndexWriterAdapter) Write(path string, index types.RepoIndexFile) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode repo index").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write repo index").
			WithCause(err)
	}
	return nil
}

func sortDebVersions(versions []string) []string {
	sort.Slice(versions, func(i, j int) bool {
		vi, err := debversion.NewVersion(versions[i])
		if err != nil {
			return versions[i] < versions[j]
		}
		vj, err := debversion.NewVersion(versions[j])
		if err != nil {
			return versions[i] < versions[j]
		}
		return vi.Compare(vj) < 0
	})
	return versions
}

var _ ports.PackageIndexPort = (*RepoIndexFileAdapter)(nil)
var _ ports.RepoIndexWriterPort = RepoIndexWriterAdapter{}
