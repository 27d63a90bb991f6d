package ports

import (
	"context"
	"time"
)

// ProbePort checks whether a launched process is serving.
type ProbePort interface {
	WaitListening(ctx context.Context, address string, timeout time.Duration) error
	Health(ctx context.Context, url string) error
}
