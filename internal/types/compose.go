package types

// ComposeProject is the subset of a docker-compose file needed to run a
// packaged application.
type ComposeProject struct {
	Services map[string]ComposeService `yaml:"services"`
}

type ComposeBuild struct {
	Context    string `yaml:"context,omitempty"`
	Dockerfile string `yaml:"dockerfile,omitempty"`
}

type ComposeService struct {
	Image         string            `yaml:"image,omitempty"`
	Build         *ComposeBuild     `yaml:"build,omitempty"`
	ContainerName string            `yaml:"container_name,omitempty"`
	Environment   []string          `yaml:"environment,omitempty"`
	Ports         []string          `yaml:"ports,omitempty"`
	Labels        map[string]string `yaml:"labels,omitempty"`
	Healthcheck   *ComposeHealth    `yaml:"healthcheck,omitempty"`
}

type ComposeHealth struct {
	Test     []string `yaml:"test"`
	Interval string   `yaml:"interval,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty"`
	Retries  int      `yaml:"retries,omitempty"`
}
