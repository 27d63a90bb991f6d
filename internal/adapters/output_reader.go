package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

func (a OutputReaderAdapter) ReadBuildReport(path string) (types.BuildReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.BuildReport{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("build report not found").
			WithCause(err)
	}
	report := types.BuildReport{}
	if err := yaml.Unmarshal(content, &report); err != nil {
		return types.BuildReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid build report format").
			WithCause(err)
	}
	if report.Image == "" {
		return types.BuildReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build report has no image")
	}
	return report, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
