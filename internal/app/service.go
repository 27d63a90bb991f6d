package app

import (
	"time"

	"streamlit-packager/internal/adapters"
	"streamlit-packager/internal/ports"
)

// Options configures the adapters NewService wires.
type Options struct {
	DockerHost       string
	InsecureRegistry bool
}

type Service struct {
	Recipes         ports.RecipeFilePort
	Manifests       ports.ManifestSourcePort
	Sources         ports.SourceTreePort
	Contexts        ports.BuildContextPort
	Git             ports.GitSourcePort
	Builder         ports.ImageBuilderPort
	Images          ports.ImageStorePort
	Runtime         ports.ContainerRuntimePort
	Registry        ports.RegistryPort
	Prober          ports.ProbePort
	OutputReader    ports.OutputReaderPort
	RepoIndexWriter ports.RepoIndexWriterPort
	Clock           func() time.Time
}

func NewService(opts Options) (Service, error) {
	engine, err := adapters.NewDockerEngineAdapter(opts.DockerHost)
	if err != nil {
		return Service{}, err
	}
	service := NewLocalService()
	service.Builder = engine
	service.Images = engine
	service.Runtime = engine
	service.Registry = adapters.NewRegistryAdapter(opts.InsecureRegistry)
	return service, nil
}

// NewLocalService wires only the adapters that work without a container
// engine or registry.
func NewLocalService() Service {
	return Service{
		Recipes:         adapters.NewRecipeFileAdapter(),
		Manifests:       adapters.NewManifestFileAdapter(),
		Sources:         adapters.NewSourceTreeAdapter(),
		Contexts:        adapters.NewBuildContextAdapter(),
		Git:             adapters.NewGitSourceAdapter(),
		Prober:          adapters.NewProbeAdapter(),
		OutputReader:    adapters.NewOutputReaderAdapter(),
		RepoIndexWriter: adapters.NewRepoIndexWriterAdapter(),
		Clock:           time.Now,
	}
}
