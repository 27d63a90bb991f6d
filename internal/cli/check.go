package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
)

type checkOptions struct {
	sourceOptions
	pipIndexOptions
	RepoIndex string
	Output    string
}

func newCheckCommand() *cobra.Command {
	opts := checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the pinned requirements exist in the package index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd, opts)
		},
	}
	opts.sourceOptions.register(cmd)
	opts.pipIndexOptions.register(cmd)
	cmd.Flags().StringVar(&opts.RepoIndex, "repo-index", "", "Offline repo index file used instead of the pip index")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Directory for requirements.lock and the SBOM (skipped when empty)")
	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, opts checkOptions) error {
	pip := opts.pipIndexOptions.resolved(cmd)
	result, err := app.NewLocalService().Check(ctx, app.CheckRequest{
		SourceRequest:    opts.request(cmd),
		OutputDir:        resolveString(cmd, opts.Output, "check_output", "output"),
		RepoIndex:        resolveString(cmd, opts.RepoIndex, "repo_index", "repo-index"),
		PipIndexURL:      pip.URL,
		PipUser:          pip.User,
		PipAPIKey:        pip.APIKey,
		Workers:          pip.Workers,
		HTTPTimeoutSec:   pip.TimeoutSec,
		HTTPRetries:      pip.Retries,
		HTTPRetryDelayMs: pip.RetryDelayMs,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, dep := range result.Resolved {
		fmt.Fprintf(out, "%s %s==%s\n", dep.Type, dep.Package, dep.Version)
	}
	fmt.Fprintf(out, "checked: %d\n", len(result.Resolved))
	for _, path := range result.LockFiles {
		fmt.Fprintf(out, "lock: %s\n", path)
	}
	if result.SBOMPath != "" {
		fmt.Fprintf(out, "sbom: %s\n", result.SBOMPath)
	}
	return nil
}

type indexOptions struct {
	sourceOptions
	pipIndexOptions
	Output   string
	Packages []string
}

func newIndexCommand() *cobra.Command {
	opts := indexOptions{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Snapshot pip index versions into an offline repo index file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}
	opts.sourceOptions.register(cmd)
	opts.pipIndexOptions.register(cmd)
	cmd.Flags().StringVar(&opts.Output, "output", "repo-index.yaml", "Repo index output path")
	cmd.Flags().StringSliceVar(&opts.Packages, "package", nil, "Extra package to include (repeatable)")
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	pip := opts.pipIndexOptions.resolved(cmd)
	result, err := app.NewLocalService().Index(ctx, app.IndexRequest{
		SourceRequest:    opts.request(cmd),
		Output:           resolveString(cmd, opts.Output, "repo_index_output", "output"),
		Packages:         resolveStrings(cmd, opts.Packages, "packages", "package"),
		PipIndexURL:      pip.URL,
		PipUser:          pip.User,
		PipAPIKey:        pip.APIKey,
		Workers:          pip.Workers,
		HTTPTimeoutSec:   pip.TimeoutSec,
		HTTPRetries:      pip.Retries,
		HTTPRetryDelayMs: pip.RetryDelayMs,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "repo index: %s (pip packages: %d)\n", result.OutputPath, result.PipCount)
	return nil
}
