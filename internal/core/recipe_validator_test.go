package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"streamlit-packager/internal/types"
)

func TestRecipeValidatorCases(t *testing.T) {
	validator := NewRecipeValidator()

	tests := []struct {
		name    string
		build   func() types.Recipe
		wantErr bool
	}{
		{
			name:    "defaults",
			build:   func() types.Recipe { return types.ApplyRecipeDefaults(types.Recipe{}) },
			wantErr: false,
		},
		{
			name: "relative workdir",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Workdir: "app"})
			},
			wantErr: true,
		},
		{
			name: "port out of range",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Port: 70000})
			},
			wantErr: true,
		},
		{
			name: "hostname address",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Address: "localhost"})
			},
			wantErr: true,
		},
		{
			name: "ipv6 address",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Address: "::"})
			},
			wantErr: false,
		},
		{
			name: "dockerfile outside output",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Dockerfile: "../Dockerfile"})
			},
			wantErr: true,
		},
		{
			name: "nested dockerfile",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Dockerfile: "docker/app.Dockerfile"})
			},
			wantErr: false,
		},
		{
			name: "invalid base image",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{BaseImage: "Python:3.11 slim"})
			},
			wantErr: true,
		},
		{
			name: "invalid image",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Image: "UPPER/case"})
			},
			wantErr: true,
		},
		{
			name: "registry image with digest base",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{
					Image:     "registry.example.com:5000/team/dashboard:1.2.0",
					BaseImage: "python:3.12-slim",
				})
			},
			wantErr: false,
		},
		{
			name: "entry outside the tree",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Entry: "../main.py"})
			},
			wantErr: true,
		},
		{
			name: "absolute entry",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Entry: "/app/main.py"})
			},
			wantErr: true,
		},
		{
			name: "nested entry",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Entry: "pages/home.py"})
			},
			wantErr: false,
		},
		{
			name: "launcher with arguments",
			build: func() types.Recipe {
				return types.ApplyRecipeDefaults(types.Recipe{Launcher: "python -m streamlit"})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(t.Context(), tt.build())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
