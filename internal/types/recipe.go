package types

const (
	DefaultImage          = "streamlit-app:latest"
	DefaultBaseImage      = "python:3.11-slim"
	DefaultWorkdir        = "/app"
	DefaultManifest       = "requirements.txt"
	DefaultSystemManifest = "packages.txt"
	DefaultSource         = "."
	DefaultEntry          = "main.py"
	DefaultLauncher       = "streamlit"
	DefaultPort           = 8501
	DefaultAddress        = "0.0.0.0"
	DefaultDockerfile     = "Dockerfile"
)

// Recipe describes how an application is packaged and launched. Zero
// values are filled from the package defaults by ApplyRecipeDefaults.
type Recipe struct {
	Image          string            `yaml:"image,omitempty" json:"image,omitempty"`
	BaseImage      string            `yaml:"base_image,omitempty" json:"base_image,omitempty"`
	Workdir        string            `yaml:"workdir,omitempty" json:"workdir,omitempty"`
	Manifest       string            `yaml:"manifest,omitempty" json:"manifest,omitempty"`
	SystemManifest string            `yaml:"system_manifest,omitempty" json:"system_manifest,omitempty"`
	Source         string            `yaml:"source,omitempty" json:"source,omitempty"`
	Entry          string            `yaml:"entry,omitempty" json:"entry,omitempty"`
	Launcher       string            `yaml:"launcher,omitempty" json:"launcher,omitempty"`
	Port           int               `yaml:"port,omitempty" json:"port,omitempty"`
	Address        string            `yaml:"address,omitempty" json:"address,omitempty"`
	Dockerfile     string            `yaml:"dockerfile,omitempty" json:"dockerfile,omitempty"`
	Labels         map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`

	// AllowMissingLauncher skips the check that the manifest lists the
	// launcher package.
	AllowMissingLauncher bool `yaml:"allow_missing_launcher,omitempty" json:"allow_missing_launcher,omitempty"`
}

// RecipeFile is the on-disk form of a recipe.
type RecipeFile struct {
	APIVersion string `yaml:"api_version"`
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name,omitempty"`
	Recipe     Recipe `yaml:"recipe"`
}

const RecipeKind = "recipe"

// ApplyRecipeDefaults fills every unset field with its default. Set
// fields are left untouched.
func ApplyRecipeDefaults(r Recipe) Recipe {
	if r.Image == "" {
		r.Image = DefaultImage
	}
	if r.BaseImage == "" {
		r.BaseImage = DefaultBaseImage
	}
	if r.Workdir == "" {
		r.Workdir = DefaultWorkdir
	}
	if r.Manifest == "" {
		r.Manifest = DefaultManifest
	}
	if r.SystemManifest == "" {
		r.SystemManifest = DefaultSystemManifest
	}
	if r.Source == "" {
		r.Source = DefaultSource
	}
	if r.Entry == "" {
		r.Entry = DefaultEntry
	}
	if r.Launcher == "" {
		r.Launcher = DefaultLauncher
	}
	if r.Port == 0 {
		r.Port = DefaultPort
	}
	if r.Address == "" {
		r.Address = DefaultAddress
	}
	if r.Dockerfile == "" {
		r.Dockerfile = DefaultDockerfile
	}
	return r
}

// MergeRecipe overlays the set fields of override onto base.
func MergeRecipe(base Recipe, override Recipe) Recipe {
	out := base
	if override.Image != "" {
		out.Image = override.Image
	}
	if override.BaseImage != "" {
		out.BaseImage = override.BaseImage
	}
	if override.Workdir != "" {
		out.Workdir = override.Workdir
	}
	if override.Manifest != "" {
		out.Manifest = override.Manifest
	}
	if override.SystemManifest != "" {
		out.SystemManifest = override.SystemManifest
	}
	if override.Source != "" {
		out.Source = override.Source
	}
	if override.Entry != "" {
		out.Entry = override.Entry
	}
	if override.Launcher != "" {
		out.Launcher = override.Launcher
	}
	if override.Port != 0 {
		out.Port = override.Port
	}
	if override.Address != "" {
		out.Address = override.Address
	}
	if override.Dockerfile != "" {
		out.Dockerfile = override.Dockerfile
	}
	if len(override.Labels) > 0 {
		labels := make(map[string]string, len(base.Labels)+len(override.Labels))
		for k, v := range base.Labels {
			labels[k] = v
		}
		for k, v := range override.Labels {
			labels[k] = v
		}
		out.Labels = labels
	}
	if override.AllowMissingLauncher {
		out.AllowMissingLauncher = true
	}
	return out
}
