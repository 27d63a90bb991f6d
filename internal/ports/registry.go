package ports

import "context"

// RegistryPort talks to remote OCI registries.
type RegistryPort interface {
	Digest(ctx context.Context, ref string) (string, error)
	PushTarball(ctx context.Context, path string, ref string) (string, error)
}
