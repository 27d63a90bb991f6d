package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/types"
)

type initOptions struct {
	Dir       string
	Name      string
	Image     string
	BaseImage string
	Entry     string
	Port      int
	Force     bool
}

func newInitCommand() *cobra.Command {
	opts := initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter recipe next to the application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "Application directory")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Recipe name (defaults to the directory name)")
	cmd.Flags().StringVar(&opts.Image, "image", "", "Image reference to record")
	cmd.Flags().StringVar(&opts.BaseImage, "base-image", "", "Base image to record")
	cmd.Flags().StringVar(&opts.Entry, "entry", "", "Entry script to record")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to record")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing recipe")
	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, opts initOptions) error {
	path, err := app.NewLocalService().Init(ctx, app.InitRequest{
		Dir:  opts.Dir,
		Name: opts.Name,
		Recipe: types.Recipe{
			Image:     opts.Image,
			BaseImage: opts.BaseImage,
			Entry:     opts.Entry,
			Port:      opts.Port,
		},
		Force: opts.Force,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recipe: %s\n", path)
	return nil
}
