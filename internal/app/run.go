package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/core"
	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

const (
	defaultRunWait      = 60 * time.Second
	runProbeStep        = time.Second
	earlyExitLogTail    = "20"
	defaultStopTimeout  = 10
	defaultProbeTimeout = 30 * time.Second
)

// Run starts a container from an image and, when ProbeHost is set,
// waits until the application answers on the published port. A
// container that exits first fails the run with its last log lines.
func (s Service) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if s.Runtime == nil {
		return RunResult{}, engineNotConfigured()
	}
	image := strings.TrimSpace(req.Image)
	if image == "" {
		return RunResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("image is required")
	}
	port := req.Port
	if port == 0 {
		port = types.DefaultPort
	}
	hostPort := req.HostPort
	if hostPort == 0 {
		hostPort = port
	}
	info, err := s.Runtime.Run(ctx, types.RunOptions{
		Image:    image,
		Name:     strings.TrimSpace(req.Name),
		HostPort: hostPort,
		Port:     port,
		HostIP:   req.HostIP,
		Env:      req.Env,
		Remove:   req.Remove,
	})
	if err != nil {
		return RunResult{}, err
	}
	log.Ctx(ctx).Info().
		Str("container", shared.ShortID(info.ID)).
		Str("image", image).
		Int("port", hostPort).
		Msg("container started")

	result := RunResult{Container: info}
	if req.ProbeHost == "" {
		return result, nil
	}
	result.URL = fmt.Sprintf("http://%s", net.JoinHostPort(req.ProbeHost, strconv.Itoa(hostPort)))
	wait := req.Wait
	if wait <= 0 {
		wait = defaultRunWait
	}
	if err := s.awaitReady(ctx, info, req.ProbeHost, hostPort, req.Health, wait); err != nil {
		return result, err
	}
	return result, nil
}

func (s Service) awaitReady(ctx context.Context, info types.ContainerInfo, host string, port int, health bool, wait time.Duration) error {
	if s.Prober == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("probe is not configured")
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))
	deadline := time.Now().Add(wait)
	var lastErr error
	for {
		if health {
			lastErr = s.Prober.Health(ctx, core.HealthURL(host, port))
			if lastErr != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(runProbeStep):
				}
			}
		} else {
			lastErr = s.Prober.WaitListening(ctx, address, runProbeStep)
		}
		if lastErr == nil {
			return nil
		}
		current, err := s.Runtime.Inspect(ctx, info.ID)
		if err != nil && errbuilder.CodeOf(err) != errbuilder.CodeNotFound {
			return err
		}
		if err != nil || !current.Running {
			return s.earlyExitError(ctx, info, current, port)
		}
		if time.Now().After(deadline) {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("application in %s not ready on %s after %s", shared.ShortID(info.ID), address, wait)).
				WithCause(lastErr)
		}
	}
}

func (s Service) earlyExitError(ctx context.Context, started types.ContainerInfo, current types.ContainerInfo, port int) error {
	var logs bytes.Buffer
	if err := s.Runtime.Logs(ctx, started.ID, earlyExitLogTail, &logs); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("logs of exited container unavailable")
	}
	cause := errors.New("no logs available")
	if text := strings.TrimSpace(logs.String()); text != "" {
		cause = errors.New(text)
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("container %s exited with code %d before listening on port %d",
			shared.ShortID(started.ID), current.ExitCode, port)).
		WithCause(cause)
}

func (s Service) Stop(ctx context.Context, req StopRequest) error {
	if s.Runtime == nil {
		return engineNotConfigured()
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("container id is required")
	}
	timeout := req.TimeoutSec
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	if err := s.Runtime.Stop(ctx, id, timeout); err != nil {
		return err
	}
	if req.Remove {
		return s.Runtime.Remove(ctx, id)
	}
	return nil
}

func (s Service) Logs(ctx context.Context, req LogsRequest) error {
	if s.Runtime == nil {
		return engineNotConfigured()
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("container id is required")
	}
	if req.Output == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("log output is required")
	}
	return s.Runtime.Logs(ctx, id, req.Tail, req.Output)
}

func (s Service) List(ctx context.Context, req ListRequest) ([]types.ContainerInfo, error) {
	if s.Runtime == nil {
		return nil, engineNotConfigured()
	}
	return s.Runtime.List(ctx, req.All)
}

// Probe checks an already running application.
func (s Service) Probe(ctx context.Context, req ProbeRequest) error {
	if s.Prober == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("probe is not configured")
	}
	host := strings.TrimSpace(req.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := req.Port
	if port == 0 {
		port = types.DefaultPort
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	if err := s.Prober.WaitListening(ctx, net.JoinHostPort(host, strconv.Itoa(port)), timeout); err != nil {
		return err
	}
	if req.Health {
		return s.Prober.Health(ctx, core.HealthURL(host, port))
	}
	return nil
}
