package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
)

type planOptions struct {
	sourceOptions
	OutputDir   string
	Stdout      bool
	ResolveBase bool
}

func newPlanCommand() *cobra.Command {
	opts := planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compile the build plan and write the Dockerfile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Print the Dockerfile instead of writing it")
	cmd.Flags().BoolVar(&opts.ResolveBase, "resolve-base", false, "Pin the base image by registry digest")
	return cmd
}

func runPlan(ctx context.Context, cmd *cobra.Command, opts planOptions) error {
	service := app.NewLocalService()
	resolveBase := resolveBool(cmd, opts.ResolveBase, "resolve_base", "resolve-base")
	if resolveBase {
		engineService, err := newAppService()
		if err != nil {
			return err
		}
		service = engineService
	}
	stdout := resolveBool(cmd, opts.Stdout, "stdout", "stdout")
	outputDir := resolveString(cmd, opts.OutputDir, "output", "output")
	if stdout {
		outputDir = ""
	}
	result, err := service.Plan(ctx, app.PlanRequest{
		SourceRequest: opts.request(cmd),
		OutputDir:     outputDir,
		ResolveBase:   resolveBase,
	})
	if err != nil {
		return err
	}
	printHints(cmd, result.Hints)
	out := cmd.OutOrStdout()
	if stdout {
		fmt.Fprint(out, result.Dockerfile)
		return nil
	}
	fmt.Fprintf(out, "dockerfile: %s\n", result.DockerfilePath)
	fmt.Fprintf(out, "dependency key: %s\n", result.Plan.Keys.Dependency)
	fmt.Fprintf(out, "source key: %s\n", result.Plan.Keys.Source)
	if result.Plan.BaseDigest != "" {
		fmt.Fprintf(out, "base digest: %s\n", result.Plan.BaseDigest)
	}
	return nil
}
