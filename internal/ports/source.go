package ports

import (
	"context"
	"io"

	"streamlit-packager/internal/types"
)

// ManifestSourcePort reads manifest files by their slash-separated path
// relative to a source root. A missing file is a CodeNotFound error.
type ManifestSourcePort interface {
	ReadManifest(root string, rel string) ([]byte, error)
}

// SourceTreePort discovers the application files staged into the image.
type SourceTreePort interface {
	Scan(ctx context.Context, root string, entry string) (types.SourceTree, error)
}

// BuildContextPort packs a source tree and a generated Dockerfile into
// the tar stream the engine builds from.
type BuildContextPort interface {
	Open(ctx context.Context, tree types.SourceTree, dockerfile string, content []byte) (io.ReadCloser, error)
}

// GitSourcePort checks out a remote repository as a source root.
type GitSourcePort interface {
	Clone(ctx context.Context, url string, ref string, dir string) (string, error)
}
