package ports

import (
	"context"

	"streamlit-packager/internal/types"
)

// PackageIndexPort lists the versions a package index offers. A package
// the index does not know returns an empty list and no error.
type PackageIndexPort interface {
	AvailableVersions(ctx context.Context, depType types.DependencyType, name string) ([]string, error)
}

type RepoIndexWriterPort interface {
	Write(path string, index types.RepoIndexFile) error
}
