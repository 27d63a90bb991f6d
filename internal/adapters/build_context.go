package adapters

import (
	"archive/tar"
	"context"
	"io"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	archive "github.com/moby/go-archive"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

type BuildContextAdapter struct{}

func NewBuildContextAdapter() BuildContextAdapter {
	return BuildContextAdapter{}
}

// Open tars the source tree with its ignore patterns applied and puts
// the generated Dockerfile at the context root under the given name,
// replacing any Dockerfile the tree already has.
func (a BuildContextAdapter) Open(ctx context.Context, tree types.SourceTree, dockerfile string, content []byte) (io.ReadCloser, error) {
	stream, err := archive.TarWithOptions(tree.Root, &archive.TarOptions{
		ExcludePatterns: tree.Ignore,
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create build context").
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("root", tree.Root).Str("dockerfile", dockerfile).Msg("build context opened")
	return archive.ReplaceFileTarWrapper(stream, map[string]archive.TarModifierFunc{
		dockerfile: func(_ string, header *tar.Header, _ io.Reader) (*tar.Header, []byte, error) {
			if header == nil {
				header = &tar.Header{
					Typeflag: tar.TypeReg,
					Name:     dockerfile,
					Mode:     0o644,
					ModTime:  time.Unix(0, 0),
				}
			}
			header.Size = int64(len(content))
			return header, content, nil
		},
	}), nil
}

var _ ports.BuildContextPort = BuildContextAdapter{}
