package adapters

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

const (
	DockerfileName  = "Dockerfile"
	ComposeFileName = "docker-compose.yaml"
	BuildReportName = "build-report.yaml"
)

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

// WriteDockerfile writes content to name inside the output directory. An
// empty name writes DockerfileName; names may not leave the directory.
func (a OutputFileAdapter) WriteDockerfile(name string, content string) (string, error) {
	name = filepath.ToSlash(strings.TrimSpace(name))
	if name == "" {
		name = DockerfileName
	}
	cleaned := path.Clean(name)
	if path.IsAbs(cleaned) || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("dockerfile must be a path inside the output directory, got %q", name))
	}
	target, err := a.ensurePath(filepath.FromSlash(cleaned))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", writeError(cleaned, err)
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return "", writeError(cleaned, err)
	}
	return target, nil
}

func (a OutputFileAdapter) WriteCompose(project types.ComposeProject) (string, error) {
	return a.writeYAML(ComposeFileName, project)
}

func (a OutputFileAdapter) WriteBuildReport(report types.BuildReport) (string, error) {
	return a.writeYAML(BuildReportName, report)
}

func (a OutputFileAdapter) writeYAML(filename string, value any) (string, error) {
	path, err := a.ensurePath(filename)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode " + filename).
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", writeError(filename, err)
	}
	return path, nil
}

func (a OutputFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

func writeError(filename string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to write " + filename).
		WithCause(err)
}

var _ ports.OutputPort = OutputFileAdapter{}
