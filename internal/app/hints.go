package app

import (
	"fmt"

	"streamlit-packager/internal/types"
)

// overrideHint pairs a flag name with the recipe key it overrides.
type overrideHint struct {
	FlagName  string
	RecipeKey string
}

// recipeOverrideHints returns a hint for every flag that overrides a
// different value set in the recipe file.
func recipeOverrideHints(overrides types.Recipe, file types.Recipe) []string {
	checks := []struct {
		hint     overrideHint
		provided string
		inFile   string
	}{
		{overrideHint{"--image", "recipe.image"}, overrides.Image, file.Image},
		{overrideHint{"--base-image", "recipe.base_image"}, overrides.BaseImage, file.BaseImage},
		{overrideHint{"--entry", "recipe.entry"}, overrides.Entry, file.Entry},
		{overrideHint{"--manifest", "recipe.manifest"}, overrides.Manifest, file.Manifest},
		{overrideHint{"--source", "recipe.source"}, overrides.Source, file.Source},
	}

	var hints []string
	for _, c := range checks {
		if c.provided != "" && c.inFile != "" && c.provided != c.inFile {
			hints = append(hints, fmt.Sprintf(
				"hint: %s overrides %s (%s) from the recipe file",
				c.hint.FlagName, c.hint.RecipeKey, c.inFile,
			))
		}
	}
	if overrides.Port != 0 && file.Port != 0 && overrides.Port != file.Port {
		hints = append(hints, fmt.Sprintf(
			"hint: --port overrides recipe.port (%d) from the recipe file", file.Port,
		))
	}
	return hints
}
