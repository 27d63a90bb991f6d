package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/shared"
)

type buildOptions struct {
	planOptions
	NoCache bool
	Pull    bool
	Quiet   bool
}

func newBuildCommand() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and tag the application image",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cmd, opts)
		},
	}
	opts.sourceOptions.register(cmd)
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Directory for the Dockerfile and build report")
	cmd.Flags().BoolVar(&opts.ResolveBase, "resolve-base", false, "Pin the base image by registry digest")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Do not use the build cache")
	cmd.Flags().BoolVar(&opts.Pull, "pull", false, "Always pull the base image")
	cmd.Flags().BoolVar(&opts.Quiet, "quiet", false, "Do not stream build output")
	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, opts buildOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	req := app.BuildRequest{
		PlanRequest: app.PlanRequest{
			SourceRequest: opts.request(cmd),
			OutputDir:     resolveString(cmd, opts.OutputDir, "output", "output"),
			ResolveBase:   resolveBool(cmd, opts.ResolveBase, "resolve_base", "resolve-base"),
		},
		NoCache: resolveBool(cmd, opts.NoCache, "no_cache", "no-cache"),
		Pull:    resolveBool(cmd, opts.Pull, "pull", "pull"),
	}
	if !resolveBool(cmd, opts.Quiet, "quiet", "quiet") {
		req.Output = cmd.ErrOrStderr()
	}
	result, err := service.Build(ctx, req)
	if err != nil {
		return err
	}
	printHints(cmd, result.Hints)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "built: %s (%s)\n", result.Report.Image, shared.ShortID(result.Report.ImageID))
	if result.ReportPath != "" {
		fmt.Fprintf(out, "report: %s\n", result.ReportPath)
	}
	return nil
}
