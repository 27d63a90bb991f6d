package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/types"
)

const recipeAPIVersion = "v1"

type RecipeFileAdapter struct{}

func NewRecipeFileAdapter() RecipeFileAdapter {
	return RecipeFileAdapter{}
}

func (a RecipeFileAdapter) Load(path string) (types.RecipeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RecipeFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("recipe file not found").
			WithCause(err)
	}
	var file types.RecipeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.RecipeFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse recipe yaml").
			WithCause(err)
	}
	if file.Kind != "" && file.Kind != types.RecipeKind {
		return types.RecipeFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("file kind is not recipe")
	}
	if file.APIVersion != "" && file.APIVersion != recipeAPIVersion {
		return types.RecipeFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported recipe api_version " + file.APIVersion)
	}
	// Relative sources resolve against the recipe file's directory.
	if file.Recipe.Source != "" && !filepath.IsAbs(file.Recipe.Source) {
		file.Recipe.Source = filepath.Join(filepath.Dir(path), file.Recipe.Source)
	}
	return file, nil
}

func (a RecipeFileAdapter) Save(path string, file types.RecipeFile) error {
	if file.APIVersion == "" {
		file.APIVersion = recipeAPIVersion
	}
	if file.Kind == "" {
		file.Kind = types.RecipeKind
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode recipe yaml").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write recipe file").
			WithCause(err)
	}
	return nil
}

var _ ports.RecipeFilePort = RecipeFileAdapter{}
