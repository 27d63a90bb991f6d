package ports

import "streamlit-packager/internal/types"

type RecipeFilePort interface {
	Load(path string) (types.RecipeFile, error)
	Save(path string, file types.RecipeFile) error
}
