package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
	"streamlit-packager/tests/testutil"
)

type stubBuilder struct {
	request ports.ImageBuildRequest
}

func (s *stubBuilder) Build(_ context.Context, request ports.ImageBuildRequest) (ports.ImageBuildResult, error) {
	s.request = request
	_, _ = io.Copy(io.Discard, request.Context)
	return ports.ImageBuildResult{ImageID: "sha256:feedface"}, nil
}

type stubRuntime struct {
	started    types.RunOptions
	stopped    []string
	removed    []string
	containers []types.ContainerInfo
}

func (s *stubRuntime) Run(_ context.Context, opts types.RunOptions) (types.ContainerInfo, error) {
	s.started = opts
	return types.ContainerInfo{ID: "abc123", Name: opts.Name, Image: opts.Image, Running: true}, nil
}

func (s *stubRuntime) Stop(_ context.Context, id string, _ int) error {
	s.stopped = append(s.stopped, id)
	return nil
}

func (s *stubRuntime) Remove(_ context.Context, id string) error {
	s.removed = append(s.removed, id)
	return nil
}

func (s *stubRuntime) Logs(_ context.Context, id string, _ string, w io.Writer) error {
	if id == "missing" {
		return errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("container not found: missing")
	}
	_, err := io.WriteString(w, "Local URL: http://localhost:8501\n")
	return err
}

func (s *stubRuntime) Inspect(_ context.Context, id string) (types.ContainerInfo, error) {
	return types.ContainerInfo{ID: id, Running: true}, nil
}

func (s *stubRuntime) List(_ context.Context, _ bool) ([]types.ContainerInfo, error) {
	return s.containers, nil
}

func newTestServer(t *testing.T, builder *stubBuilder, runtime *stubRuntime, configure ...func(*Config)) *httptestServer {
	t.Helper()
	service := app.NewLocalService()
	service.Builder = builder
	service.Runtime = runtime
	cfg := Config{Source: app.SourceRequest{RecipePath: testutil.Fixture(t, "streamlit-packager.yaml")}}
	for _, fn := range configure {
		fn(&cfg)
	}
	return &httptestServer{t: t, handler: New(service, cfg)}
}

type httptestServer struct {
	t       *testing.T
	handler *fiber.App
}

func (s *httptestServer) do(method string, target string, body string) (*http.Response, string) {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.handler.Test(req, -1)
	require.NoError(s.t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	_ = resp.Body.Close()
	return resp, string(data)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubBuilder{}, &stubRuntime{})
	resp, body := srv.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestPlanReturnsDockerfile(t *testing.T) {
	srv := newTestServer(t, &stubBuilder{}, &stubRuntime{})
	resp, body := srv.do(http.MethodGet, "/api/v1/plan", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "FROM python:3.11-slim\n"))
	assert.Contains(t, body, `CMD ["streamlit", "run", "main.py", "--server.port=8501", "--server.address=0.0.0.0"]`)
}

func TestBuildUsesConfiguredSource(t *testing.T) {
	builder := &stubBuilder{}
	srv := newTestServer(t, builder, &stubRuntime{})
	resp, body := srv.do(http.MethodPost, "/api/v1/builds", `{"image":"sample:api"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	var report types.BuildReport
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	assert.Equal(t, "sample:api", report.Image)
	assert.Equal(t, "sha256:feedface", report.ImageID)
	assert.Equal(t, "sample:api", builder.request.Tag)
}

func withSourceRoot(root string) func(*Config) {
	return func(cfg *Config) { cfg.SourceRoot = root }
}

func TestBuildMissingEntry(t *testing.T) {
	srv := newTestServer(t, &stubBuilder{}, &stubRuntime{}, withSourceRoot(testutil.Fixture(t)))
	resp, body := srv.do(http.MethodPost, "/api/v1/builds", `{"source":"app-missing-entry"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "entry file not found: main.py")
}

func TestBuildSourceInsideRoot(t *testing.T) {
	builder := &stubBuilder{}
	srv := newTestServer(t, builder, &stubRuntime{}, withSourceRoot(testutil.Fixture(t)))
	resp, body := srv.do(http.MethodPost, "/api/v1/builds", `{"recipe":"streamlit-packager.yaml","image":"sample:root"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "sample:root", builder.request.Tag)
}

func TestBuildRejectsPathsOutsideRoot(t *testing.T) {
	outside := testutil.Fixture(t, "app")
	tests := []struct {
		name    string
		payload string
		config  []func(*Config)
		want    string
	}{
		{
			name:    "parent source",
			payload: `{"source":"../app"}`,
			config:  []func(*Config){withSourceRoot(testutil.Fixture(t, "golden"))},
			want:    "source must be a relative path inside the source root",
		},
		{
			name:    "nested parent recipe",
			payload: `{"recipe":"app/../../streamlit-packager.yaml"}`,
			config:  []func(*Config){withSourceRoot(testutil.Fixture(t, "golden"))},
			want:    "recipe must be a relative path inside the source root",
		},
		{
			name:    "absolute source",
			payload: `{"source":"` + outside + `"}`,
			config:  []func(*Config){withSourceRoot(testutil.Fixture(t, "golden"))},
			want:    "source must be a relative path inside the source root",
		},
		{
			name:    "no source root",
			payload: `{"source":"app"}`,
			want:    "source paths are disabled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &stubBuilder{}
			srv := newTestServer(t, builder, &stubRuntime{}, tt.config...)
			resp, body := srv.do(http.MethodPost, "/api/v1/builds", tt.payload)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Contains(t, body, tt.want)
			assert.Empty(t, builder.request.Tag)
		})
	}
}

func TestStartContainerAllowedImages(t *testing.T) {
	runtime := &stubRuntime{}
	srv := newTestServer(t, &stubBuilder{}, runtime, func(cfg *Config) {
		cfg.AllowedImages = []string{"registry.example/apps/"}
	})

	resp, body := srv.do(http.MethodPost, "/api/v1/containers/", `{"image":"alpine:3"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"error":"image is not allowed: alpine:3"}`, body)
	assert.Empty(t, runtime.started.Image)

	resp, body = srv.do(http.MethodPost, "/api/v1/containers/", `{"image":"registry.example/apps/demo:1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "registry.example/apps/demo:1", runtime.started.Image)
}

func TestStartContainer(t *testing.T) {
	runtime := &stubRuntime{}
	srv := newTestServer(t, &stubBuilder{}, runtime)
	resp, body := srv.do(http.MethodPost, "/api/v1/containers/", `{"image":"sample:dev","name":"web"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, 8501, runtime.started.Port)
	assert.Equal(t, "web", runtime.started.Name)
	assert.Contains(t, body, `"id":"abc123"`)
}

func TestStartContainerRequiresImage(t *testing.T) {
	srv := newTestServer(t, &stubBuilder{}, &stubRuntime{})
	resp, body := srv.do(http.MethodPost, "/api/v1/containers/", `{"name":"web"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"image is required"}`, body)
}

func TestListStopAndLogs(t *testing.T) {
	runtime := &stubRuntime{containers: []types.ContainerInfo{{ID: "abc123", Name: "web", Running: true}}}
	srv := newTestServer(t, &stubBuilder{}, runtime)

	resp, body := srv.do(http.MethodGet, "/api/v1/containers/?all=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []types.ContainerInfo
	require.NoError(t, json.Unmarshal([]byte(body), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "web", listed[0].Name)

	resp, _ = srv.do(http.MethodDelete, "/api/v1/containers/abc123?remove=true", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"abc123"}, runtime.stopped)
	assert.Equal(t, []string{"abc123"}, runtime.removed)

	resp, body = srv.do(http.MethodGet, "/api/v1/containers/abc123/logs", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Local URL")

	resp, _ = srv.do(http.MethodGet, "/api/v1/containers/missing/logs", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
