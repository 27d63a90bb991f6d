package adapters

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/shared"
)

const defaultProbeInterval = 250 * time.Millisecond

type ProbeAdapter struct {
	Interval time.Duration
	client   *http.Client
}

func NewProbeAdapter() ProbeAdapter {
	return ProbeAdapter{
		Interval: defaultProbeInterval,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WaitListening dials address until a TCP connection succeeds or the
// timeout expires.
func (a ProbeAdapter) WaitListening(ctx context.Context, address string, timeout time.Duration) error {
	interval := a.Interval
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	dialer := net.Dialer{Timeout: interval}
	attempts := 0
	for {
		attempts++
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			_ = conn.Close()
			log.Ctx(ctx).Debug().Str("address", address).Int("attempts", attempts).Msg("port is listening")
			return nil
		}
		select {
		case <-ctx.Done():
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("nothing listening on %s after %s", address, timeout)).
				WithCause(err)
		case <-time.After(interval):
		}
	}
}

// Health expects a 200 answer from url.
func (a ProbeAdapter) Health(ctx context.Context, url string) error {
	client := a.client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid health url").
			WithCause(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("health check request failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("health check failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	return nil
}

var _ ports.ProbePort = ProbeAdapter{}
