package adapters

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
)

// RegistryAdapter resolves and pushes images with credentials from the
// local docker config keychain.
type RegistryAdapter struct {
	Insecure bool
}

func NewRegistryAdapter(insecure bool) RegistryAdapter {
	return RegistryAdapter{Insecure: insecure}
}

func (a RegistryAdapter) Digest(ctx context.Context, ref string) (string, error) {
	if _, err := a.parse(ref); err != nil {
		return "", err
	}
	digest, err := crane.Digest(ref, a.options(ctx)...)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to resolve digest of " + ref).
			WithCause(err)
	}
	return digest, nil
}

// PushTarball uploads an image archive produced by the engine and
// returns the digest of the pushed manifest.
func (a RegistryAdapter) PushTarball(ctx context.Context, path string, ref string) (string, error) {
	parsed, err := a.parse(ref)
	if err != nil {
		return "", err
	}
	img, err := crane.Load(path, a.options(ctx)...)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load image archive").
			WithCause(err)
	}
	if err := crane.Push(img, parsed.String(), a.options(ctx)...); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("failed to push " + parsed.String()).
			WithCause(err)
	}
	digest, err := img.Digest()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to compute image digest").
			WithCause(err)
	}
	log.Ctx(ctx).Debug().Str("ref", parsed.String()).Str("digest", digest.String()).Msg("image pushed")
	return digest.String(), nil
}

func (a RegistryAdapter) parse(ref string) (name.Reference, error) {
	var opts []name.Option
	if a.Insecure {
		opts = append(opts, name.Insecure)
	}
	parsed, err := name.ParseReference(ref, opts...)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid image reference " + ref).
			WithCause(err)
	}
	return parsed, nil
}

func (a RegistryAdapter) options(ctx context.Context) []crane.Option {
	opts := []crane.Option{
		crane.WithContext(ctx),
		crane.WithAuthFromKeychain(authn.DefaultKeychain),
	}
	if a.Insecure {
		opts = append(opts, crane.Insecure)
	}
	return opts
}

var _ ports.RegistryPort = RegistryAdapter{}
