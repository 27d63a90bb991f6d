package types

// InstallerOption is a global option line of a pip requirements file,
// such as "--index-url https://..." or "--pre".
type InstallerOption struct {
	Flag  string
	Value string
}

// Manifest is a parsed dependency manifest. Files holds the manifest
// itself followed by every file it includes, as paths relative to the
// source root, in the order they were read.
type Manifest struct {
	Path         string
	Type         DependencyType
	Files        []string
	Requirements []Requirement
	Options      []InstallerOption
	Content      []byte
}

// Names returns the normalized requirement names in manifest order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m.Requirements))
	for _, req := range m.Requirements {
		names = append(names, req.Normalized)
	}
	return names
}

// IndexURL returns the last --index-url option, as pip applies it, or "".
func (m Manifest) IndexURL() string {
	url := ""
	for _, opt := range m.Options {
		if opt.Flag == "--index-url" {
			url = opt.Value
		}
	}
	return url
}

// ExtraIndexURLs returns every --extra-index-url option in file order.
func (m Manifest) ExtraIndexURLs() []string {
	var urls []string
	for _, opt := range m.Options {
		if opt.Flag == "--extra-index-url" {
			urls = append(urls, opt.Value)
		}
	}
	return urls
}

// AllowsPreReleases reports whether the manifest carries --pre.
func (m Manifest) AllowsPreReleases() bool {
	for _, opt := range m.Options {
		if opt.Flag == "--pre" {
			return true
		}
	}
	return false
}

// Empty reports whether the manifest declares no packages.
func (m Manifest) Empty() bool {
	return len(m.Requirements) == 0
}
