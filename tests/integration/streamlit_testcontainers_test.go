//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/types"
	"streamlit-packager/tests/testutil"
)

// stageSampleApp copies the sample application into a temp directory and
// writes the generated Dockerfile next to it.
func stageSampleApp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(testutil.Fixture(t, "app"))))

	_, err := app.NewLocalService().Plan(t.Context(), app.PlanRequest{
		SourceRequest: app.SourceRequest{Overrides: types.Recipe{Source: dir}},
		OutputDir:     dir,
	})
	require.NoError(t, err)
	return dir
}

func TestGeneratedDockerfileServesOnPort8501(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers build in short mode")
	}
	ctx := t.Context()
	dir := stageSampleApp(t)

	req := testcontainers.ContainerRequest{
		FromDockerfile: testcontainers.FromDockerfile{
			Context:    dir,
			Dockerfile: "Dockerfile",
		},
		ExposedPorts: []string{"8501/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8501/tcp"),
			wait.ForHTTP("/_stcore/health").WithPort("8501/tcp"),
		).WithDeadline(5 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8501/tcp")
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://%s:%s/", host, port.Port()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<title>Streamlit</title>")
}

// TestEngineBuildRunAndPush drives the docker engine adapter end to end:
// build the sample image, run it until healthy, then push it to a
// throwaway registry.
func TestEngineBuildRunAndPush(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping engine build in short mode")
	}
	ctx := t.Context()
	dir := stageSampleApp(t)
	registry := startRegistry(ctx, t)

	service, err := app.NewService(app.Options{InsecureRegistry: true})
	require.NoError(t, err)

	image := "streamlit-packager-it:" + fmt.Sprint(time.Now().UnixNano())
	outDir := t.TempDir()
	var buildLog bytes.Buffer
	built, err := service.Build(ctx, app.BuildRequest{
		PlanRequest: app.PlanRequest{
			SourceRequest: app.SourceRequest{Overrides: types.Recipe{Source: dir, Image: image}},
			OutputDir:     outDir,
		},
		Output: &buildLog,
	})
	require.NoError(t, err, buildLog.String())
	assert.NotEmpty(t, built.Report.ImageID)
	assert.FileExists(t, filepath.Join(outDir, "build-report.yaml"))

	hostPort := testutil.FreePort(t)
	run, err := service.Run(ctx, app.RunRequest{
		Image:     image,
		HostPort:  hostPort,
		ProbeHost: "127.0.0.1",
		Health:    true,
		Wait:      2 * time.Minute,
	})
	if run.Container.ID != "" {
		t.Cleanup(func() {
			_ = service.Stop(context.Background(), app.StopRequest{ID: run.Container.ID, Remove: true})
		})
	}
	require.NoError(t, err)

	listed, err := service.List(ctx, app.ListRequest{})
	require.NoError(t, err)
	ids := make([]string, 0, len(listed))
	for _, c := range listed {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, run.Container.ID)

	pushed, err := service.Push(ctx, app.PushRequest{
		ReportPath: outDir,
		Target:     registry + "/streamlit-packager-it:latest",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pushed.Digest)
}

func startRegistry(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForListeningPort("5000/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5000/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}
