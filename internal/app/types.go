package app

import (
	"io"
	"time"

	"streamlit-packager/internal/types"
)

// SourceRequest locates an application and its recipe. Overrides win
// over the recipe file, which wins over the defaults.
type SourceRequest struct {
	RecipePath string
	Overrides  types.Recipe
	RepoURL    string
	RepoRef    string
}

type InitRequest struct {
	Dir    string
	Name   string
	Recipe types.Recipe
	Force  bool
}

type ValidateRequest struct {
	SourceRequest
}

type ValidateResult struct {
	Name           string
	Recipe         types.Recipe
	Requirements   int
	SystemPackages int
	Files          int
	Hints          []string
}

type PlanRequest struct {
	SourceRequest
	OutputDir   string
	ResolveBase bool
}

type PlanResult struct {
	Plan           types.BuildPlan
	Dockerfile     string
	DockerfilePath string
	Hints          []string
}

type CheckRequest struct {
	SourceRequest
	OutputDir        string
	RepoIndex        string
	PipIndexURL      string
	PipUser          string
	PipAPIKey        string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

type CheckResult struct {
	Resolved  []types.ResolvedDependency
	LockFiles []string
	SBOMPath  string
}

type IndexRequest struct {
	SourceRequest
	Output           string
	Packages         []string
	PipIndexURL      string
	PipUser          string
	PipAPIKey        string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

type IndexResult struct {
	OutputPath string
	PipCount   int
}

type BuildRequest struct {
	PlanRequest
	NoCache bool
	Pull    bool
	Output  io.Writer
}

type BuildResult struct {
	Report     types.BuildReport
	ReportPath string
	Hints      []string
}

type RunRequest struct {
	Image    string
	Name     string
	HostPort int
	Port     int
	HostIP   string
	Env      []string
	Remove   bool
	// ProbeHost is where the published port is reachable from this
	// process. Empty skips waiting for the application.
	ProbeHost string
	Health    bool
	Wait      time.Duration
}

type RunResult struct {
	Container types.ContainerInfo
	URL       string
}

type StopRequest struct {
	ID         string
	TimeoutSec int
	Remove     bool
}

type LogsRequest struct {
	ID     string
	Tail   string
	Output io.Writer
}

type ListRequest struct {
	All bool
}

type PushRequest struct {
	Image      string
	Target     string
	ReportPath string
}

type PushResult struct {
	Reference string
	Digest    string
}

type ExportRequest struct {
	Image      string
	ReportPath string
	Output     string
}

type ExportResult struct {
	Path  string
	Bytes int64
}

type ComposeRequest struct {
	SourceRequest
	Service   string
	HostPort  int
	OutputDir string
	Build     bool
}

type ComposeResult struct {
	Project types.ComposeProject
	Path    string
	RunArgs []string
}

type ProbeRequest struct {
	Host    string
	Port    int
	Health  bool
	Timeout time.Duration
}

type InspectRequest struct {
	ReportPath string
}

type PruneRequest struct {
	KeepLast       int
	KeepFor        time.Duration
	Protect        []string
	IncludeRunning bool
	DryRun         bool
}

type PruneResult struct {
	KeepCount   int
	DeleteCount int
	Deleted     []string
	DryRun      bool
}
