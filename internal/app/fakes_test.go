package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

type fakeBuilder struct {
	request    ports.ImageBuildRequest
	contextTar []byte
	err        error
	calls      int
}

func (f *fakeBuilder) Build(_ context.Context, request ports.ImageBuildRequest) (ports.ImageBuildResult, error) {
	f.calls++
	f.request = request
	data, _ := io.ReadAll(request.Context)
	f.contextTar = data
	if f.err != nil {
		return ports.ImageBuildResult{}, f.err
	}
	return ports.ImageBuildResult{ImageID: "sha256:0123456789abcdef"}, nil
}

type fakeImages struct {
	saved []string
}

func (f *fakeImages) Save(_ context.Context, image string, w io.Writer) error {
	f.saved = append(f.saved, image)
	_, err := io.WriteString(w, "archive:"+image)
	return err
}

type fakeRuntime struct {
	runOpts    types.RunOptions
	info       types.ContainerInfo
	inspect    []types.ContainerInfo
	inspectErr error
	logs       string
	stopped    []string
	removed    []string
	containers []types.ContainerInfo
}

func (f *fakeRuntime) Run(_ context.Context, opts types.RunOptions) (types.ContainerInfo, error) {
	f.runOpts = opts
	return f.info, nil
}

func (f *fakeRuntime) Stop(_ context.Context, id string, _ int) error {
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeRuntime) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeRuntime) Logs(_ context.Context, _ string, _ string, w io.Writer) error {
	_, err := io.WriteString(w, f.logs)
	return err
}

func (f *fakeRuntime) Inspect(_ context.Context, _ string) (types.ContainerInfo, error) {
	if f.inspectErr != nil {
		return types.ContainerInfo{}, f.inspectErr
	}
	if len(f.inspect) == 0 {
		return f.info, nil
	}
	next := f.inspect[0]
	if len(f.inspect) > 1 {
		f.inspect = f.inspect[1:]
	}
	return next, nil
}

func (f *fakeRuntime) List(_ context.Context, _ bool) ([]types.ContainerInfo, error) {
	return f.containers, nil
}

type fakeRegistry struct {
	digest    string
	digestErr error
	pushed    map[string]string
}

func (f *fakeRegistry) Digest(_ context.Context, _ string) (string, error) {
	return f.digest, f.digestErr
}

func (f *fakeRegistry) PushTarball(_ context.Context, path string, ref string) (string, error) {
	if f.pushed == nil {
		f.pushed = map[string]string{}
	}
	f.pushed[ref] = path
	return "sha256:pushed", nil
}

// fakeProbe fails until ready attempts have been made.
type fakeProbe struct {
	ready    int
	attempts int
	health   bool
}

func (f *fakeProbe) WaitListening(_ context.Context, address string, _ time.Duration) error {
	return f.attempt(address)
}

func (f *fakeProbe) Health(_ context.Context, url string) error {
	f.health = true
	return f.attempt(url)
}

func (f *fakeProbe) attempt(target string) error {
	f.attempts++
	if f.ready > 0 && f.attempts >= f.ready {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("nothing listening on " + target)
}

type fakeGit struct {
	files map[string]string
	refs  []string
	dirs  []string
}

func (f *fakeGit) Clone(_ context.Context, url string, ref string, dir string) (string, error) {
	f.refs = append(f.refs, url+"@"+ref)
	if dir == "" {
		tmp, err := os.MkdirTemp("", "fake-git-")
		if err != nil {
			return "", err
		}
		dir = tmp
	}
	f.dirs = append(f.dirs, dir)
	for rel, content := range f.files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func engineService(builder *fakeBuilder, runtime *fakeRuntime) Service {
	service := NewLocalService()
	service.Builder = builder
	service.Runtime = runtime
	service.Images = &fakeImages{}
	service.Registry = &fakeRegistry{digest: "sha256:base"}
	return service
}
