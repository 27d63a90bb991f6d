package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"streamlit-packager/internal/adapters"
	"streamlit-packager/internal/types"
)

// InspectBuild reads a build report. A directory is searched for the
// report file the build writes.
func (s Service) InspectBuild(req InspectRequest) (types.BuildReport, error) {
	path := strings.TrimSpace(req.ReportPath)
	if path == "" {
		return types.BuildReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build report path is required")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, adapters.BuildReportName)
	}
	if s.OutputReader == nil {
		return adapters.NewOutputReaderAdapter().ReadBuildReport(path)
	}
	return s.OutputReader.ReadBuildReport(path)
}
