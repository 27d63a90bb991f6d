package ports

import "streamlit-packager/internal/types"

// OutputPort writes build artifacts into an output directory.
type OutputPort interface {
	WriteDockerfile(name string, content string) (string, error)
	WriteCompose(project types.ComposeProject) (string, error)
	WriteBuildReport(report types.BuildReport) (string, error)
}

type OutputReaderPort interface {
	ReadBuildReport(path string) (types.BuildReport, error)
}

// LockPort pins the versions an index check selected.
type LockPort interface {
	WriteLock(resolved []types.ResolvedDependency) ([]string, error)
}

type SBOMPort interface {
	WriteSBOM(image string, createdAt string, resolved []types.ResolvedDependency) (string, error)
}
