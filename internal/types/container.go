package types

import "time"

// ManagedLabel marks containers started by this tool.
const ManagedLabel = "io.streamlit-packager.managed"

const (
	DependencyKeyLabel = "io.streamlit-packager.dependency-key"
	SourceKeyLabel     = "io.streamlit-packager.source-key"
)

type ContainerInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Image    string    `json:"image"`
	State    string    `json:"state"`
	Status   string    `json:"status"`
	Running  bool      `json:"running"`
	ExitCode int       `json:"exit_code"`
	Created  time.Time `json:"created"`
	Ports    []string  `json:"ports,omitempty"`
}

// ContainerRetentionPolicy selects which managed containers survive a
// prune. Running containers are only removed when IncludeRunning is set.
type ContainerRetentionPolicy struct {
	KeepLast       int
	KeepFor        time.Duration
	Protect        []string
	IncludeRunning bool
	DryRun         bool
}

type ContainerPrunePlan struct {
	Keep   []ContainerInfo
	Delete []ContainerInfo
}

type RunOptions struct {
	Image    string
	Name     string
	HostPort int
	Port     int
	HostIP   string
	Env      []string
	Labels   map[string]string
	Remove   bool
}

type BuildReport struct {
	Image      string        `json:"image" yaml:"image"`
	ImageID    string        `json:"image_id,omitempty" yaml:"image_id,omitempty"`
	BaseImage  string        `json:"base_image" yaml:"base_image"`
	BaseDigest string        `json:"base_digest,omitempty" yaml:"base_digest,omitempty"`
	Keys       LayerKeys     `json:"keys" yaml:"keys"`
	Launch     LaunchCommand `json:"launch" yaml:"launch"`
	Dockerfile string        `json:"dockerfile" yaml:"dockerfile"`
}
