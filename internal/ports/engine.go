package ports

import (
	"context"
	"io"

	"streamlit-packager/internal/types"
)

type ImageBuildRequest struct {
	Tag        string
	Dockerfile string
	Context    io.Reader
	Labels     map[string]string
	NoCache    bool
	Pull       bool
	Output     io.Writer
}

type ImageBuildResult struct {
	ImageID string
}

type ImageBuilderPort interface {
	Build(ctx context.Context, request ImageBuildRequest) (ImageBuildResult, error)
}

// ImageStorePort reads images out of the local engine.
type ImageStorePort interface {
	Save(ctx context.Context, image string, w io.Writer) error
}

type ContainerRuntimePort interface {
	Run(ctx context.Context, opts types.RunOptions) (types.ContainerInfo, error)
	Stop(ctx context.Context, id string, timeoutSec int) error
	Remove(ctx context.Context, id string) error
	Logs(ctx context.Context, id string, tail string, w io.Writer) error
	Inspect(ctx context.Context, id string) (types.ContainerInfo, error)
	List(ctx context.Context, all bool) ([]types.ContainerInfo, error)
}
