package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

// dockerAPI is the part of the engine client the adapter uses.
type dockerAPI interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImageSave(ctx context.Context, images []string, opts ...client.ImageSaveOption) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

type DockerEngineAdapter struct {
	api dockerAPI
}

// NewDockerEngineAdapter connects to the engine named by host, or to the
// one described by the DOCKER_* environment when host is empty.
func NewDockerEngineAdapter(host string) (*DockerEngineAdapter, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if strings.TrimSpace(host) != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create docker client").
			WithCause(err)
	}
	return &DockerEngineAdapter{api: cli}, nil
}

func newDockerEngineAdapter(api dockerAPI) *DockerEngineAdapter {
	return &DockerEngineAdapter{api: api}
}

func (a *DockerEngineAdapter) Build(ctx context.Context, request ports.ImageBuildRequest) (ports.ImageBuildResult, error) {
	if request.Context == nil {
		return ports.ImageBuildResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build context is required")
	}
	resp, err := a.api.ImageBuild(ctx, request.Context, build.ImageBuildOptions{
		Tags:        []string{request.Tag},
		Dockerfile:  request.Dockerfile,
		Labels:      request.Labels,
		NoCache:     request.NoCache,
		PullParent:  request.Pull,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return ports.ImageBuildResult{}, engineError("image build request failed", err)
	}
	defer resp.Body.Close()

	out := request.Output
	if out == nil {
		out = io.Discard
	}
	result := ports.ImageBuildResult{}
	aux := func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var built struct {
			ID string
		}
		if err := json.Unmarshal(*msg.Aux, &built); err == nil && built.ID != "" {
			result.ImageID = built.ID
		}
	}
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, out, 0, false, aux); err != nil {
		var jsonErr *jsonmessage.JSONError
		if errors.As(err, &jsonErr) {
			return ports.ImageBuildResult{}, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("image build failed: " + jsonErr.Message).
				WithCause(err)
		}
		return ports.ImageBuildResult{}, engineError("failed to read build output", err)
	}
	log.Ctx(ctx).Debug().Str("tag", request.Tag).Str("image_id", result.ImageID).Msg("image built")
	return result, nil
}

func (a *DockerEngineAdapter) Save(ctx context.Context, image string, w io.Writer) error {
	reader, err := a.api.ImageSave(ctx, []string{image})
	if err != nil {
		return engineError("failed to export image "+image, err)
	}
	defer reader.Close()
	if _, err := io.Copy(w, reader); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write image archive").
			WithCause(err)
	}
	return nil
}

func (a *DockerEngineAdapter) Run(ctx context.Context, opts types.RunOptions) (types.ContainerInfo, error) {
	if opts.Port <= 0 {
		return types.ContainerInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("container port is required")
	}
	port, err := nat.NewPort("tcp", strconv.Itoa(opts.Port))
	if err != nil {
		return types.ContainerInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid container port").
			WithCause(err)
	}
	hostPort := opts.HostPort
	if hostPort == 0 {
		hostPort = opts.Port
	}
	labels := map[string]string{types.ManagedLabel: "true"}
	for k, v := range opts.Labels {
		labels[k] = v
	}
	config := &container.Config{
		Image:        opts.Image,
		Env:          opts.Env,
		Labels:       labels,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}
	hostConfig := &container.HostConfig{
		AutoRemove: opts.Remove,
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: opts.HostIP, HostPort: strconv.Itoa(hostPort)}},
		},
	}
	created, err := a.api.ContainerCreate(ctx, config, hostConfig, nil, nil, opts.Name)
	if err != nil {
		return types.ContainerInfo{}, engineError("failed to create container", err)
	}
	for _, warning := range created.Warnings {
		log.Ctx(ctx).Warn().Str("container", shared.ShortID(created.ID)).Msg(warning)
	}
	if err := a.api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		_ = a.api.ContainerRemove(ctx, created.ID, container.RemoveOptions{Force: true})
		return types.ContainerInfo{}, engineError("failed to start container", err)
	}
	return a.Inspect(ctx, created.ID)
}

func (a *DockerEngineAdapter) Stop(ctx context.Context, id string, timeoutSec int) error {
	timeout := timeoutSec
	if err := a.api.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return engineError("failed to stop container "+id, err)
	}
	return nil
}

func (a *DockerEngineAdapter) Remove(ctx context.Context, id string) error {
	if err := a.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return engineError("failed to remove container "+id, err)
	}
	return nil
}

func (a *DockerEngineAdapter) Logs(ctx context.Context, id string, tail string, w io.Writer) error {
	if tail == "" {
		tail = "all"
	}
	reader, err := a.api.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
	})
	if err != nil {
		return engineError("failed to read logs of "+id, err)
	}
	defer reader.Close()
	if _, err := stdcopy.StdCopy(w, w, reader); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to copy container logs").
			WithCause(err)
	}
	return nil
}

func (a *DockerEngineAdapter) Inspect(ctx context.Context, id string) (types.ContainerInfo, error) {
	resp, err := a.api.ContainerInspect(ctx, id)
	if err != nil {
		return types.ContainerInfo{}, engineError("failed to inspect container "+id, err)
	}
	info := types.ContainerInfo{}
	if resp.ContainerJSONBase != nil {
		info.ID = resp.ID
		info.Name = strings.TrimPrefix(resp.Name, "/")
		info.Created = parseEngineTime(resp.Created)
		if resp.State != nil {
			info.State = string(resp.State.Status)
			info.Running = resp.State.Running
			info.ExitCode = resp.State.ExitCode
			info.Status = string(resp.State.Status)
		}
	}
	if resp.Config != nil {
		info.Image = resp.Config.Image
	}
	if resp.NetworkSettings != nil {
		info.Ports = formatPortMap(resp.NetworkSettings.Ports)
	}
	return info, nil
}

// List returns the containers carrying the managed label.
func (a *DockerEngineAdapter) List(ctx context.Context, all bool) ([]types.ContainerInfo, error) {
	summaries, err := a.api.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, engineError("failed to list containers", err)
	}
	var out []types.ContainerInfo
	for _, summary := range summaries {
		if summary.Labels[types.ManagedLabel] != "true" {
			continue
		}
		name := ""
		if len(summary.Names) > 0 {
			name = strings.TrimPrefix(summary.Names[0], "/")
		}
		var portsOut []string
		for _, p := range summary.Ports {
			if p.PublicPort == 0 {
				portsOut = append(portsOut, fmt.Sprintf("%d/%s", p.PrivatePort, p.Type))
				continue
			}
			portsOut = append(portsOut, fmt.Sprintf("%s:%d->%d/%s", p.IP, p.PublicPort, p.PrivatePort, p.Type))
		}
		sort.Strings(portsOut)
		out = append(out, types.ContainerInfo{
			ID:      summary.ID,
			Name:    name,
			Image:   summary.Image,
			State:   string(summary.State),
			Status:  summary.Status,
			Running: string(summary.State) == "running",
			Created: time.Unix(summary.Created, 0).UTC(),
			Ports:   portsOut,
		})
	}
	return out, nil
}

func formatPortMap(portMap nat.PortMap) []string {
	var out []string
	for port, bindings := range portMap {
		if len(bindings) == 0 {
			out = append(out, string(port))
			continue
		}
		for _, binding := range bindings {
			out = append(out, fmt.Sprintf("%s:%s->%s", binding.HostIP, binding.HostPort, port))
		}
	}
	sort.Strings(out)
	return out
}

func engineError(msg string, err error) error {
	code := errbuilder.CodeInternal
	switch {
	case cerrdefs.IsNotFound(err):
		code = errbuilder.CodeNotFound
	case cerrdefs.IsConflict(err):
		code = errbuilder.CodeAlreadyExists
	case cerrdefs.IsInvalidArgument(err):
		code = errbuilder.CodeInvalidArgument
	case cerrdefs.IsPermissionDenied(err):
		code = errbuilder.CodePermissionDenied
	}
	return errbuilder.New().
		WithCode(code).
		WithMsg(msg).
		WithCause(err)
}

var (
	_ ports.ImageBuilderPort     = (*DockerEngineAdapter)(nil)
	_ ports.ImageStorePort       = (*DockerEngineAdapter)(nil)
	_ ports.ContainerRuntimePort = (*DockerEngineAdapter)(nil)
)
