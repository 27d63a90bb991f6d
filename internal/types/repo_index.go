package types

// RepoIndexFile is an offline snapshot of the versions a package index
// offers, keyed by normalized package name.
type RepoIndexFile struct {
	Pip map[string][]string `yaml:"pip"`
	Apt map[string][]string `yaml:"apt,omitempty"`
}

// ResolvedDependency records the version an index check selected for a
// requirement.
type ResolvedDependency struct {
	Type    DependencyType `json:"type" yaml:"type"`
	Package string         `json:"package" yaml:"package"`
	Version string         `json:"version" yaml:"version"`
	Marker  string         `json:"marker,omitempty" yaml:"marker,omitempty"`
}
