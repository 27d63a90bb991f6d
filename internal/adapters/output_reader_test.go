package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/types"
)

func TestBuildReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := types.BuildReport{
		Image:     "demo:dev",
		ImageID:   "sha256:abc",
		BaseImage: "python:3.11-slim",
		Keys:      types.LayerKeys{Dependency: "sha256:dep", Source: "sha256:src"},
		Launch: types.LaunchCommand{
			Argv:    []string{"streamlit", "run", "main.py"},
			Port:    8501,
			Address: "0.0.0.0",
		},
		Dockerfile: "FROM python:3.11-slim\n",
	}
	path, err := NewOutputFileAdapter(dir).WriteBuildReport(report)
	require.NoError(t, err)

	got, err := NewOutputReaderAdapter().ReadBuildReport(path)
	require.NoError(t, err)
	if diff := cmp.Diff(report, got); diff != "" {
		t.Fatalf("unexpected report (-want +got):\n%s", diff)
	}
}

func TestReadBuildReportErrors(t *testing.T) {
	reader := NewOutputReaderAdapter()
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "invalid yaml", content: "image: [", wantErr: "invalid build report format"},
		{name: "no image", content: "image_id: sha256:abc\n", wantErr: "build report has no image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "build-report.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := reader.ReadBuildReport(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := reader.ReadBuildReport(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build report not found")
}
