package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
)

func newValidateCommand() *cobra.Command {
	opts := sourceOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the recipe, manifests and source tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts sourceOptions) error {
	service := app.NewLocalService()
	result, err := service.Validate(ctx, app.ValidateRequest{SourceRequest: opts.request(cmd)})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printHints(cmd, result.Hints)
	name := result.Name
	if name == "" {
		name = result.Recipe.Image
	}
	fmt.Fprintf(out, "validated: %s\n", name)
	fmt.Fprintf(out, "requirements: %d\n", result.Requirements)
	fmt.Fprintf(out, "system packages: %d\n", result.SystemPackages)
	fmt.Fprintf(out, "files: %d\n", result.Files)
	return nil
}

func printHints(cmd *cobra.Command, hints []string) {
	for _, hint := range hints {
		fmt.Fprintln(cmd.ErrOrStderr(), hint)
	}
}
