package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
)

type pruneOptions struct {
	KeepLast       int
	KeepFor        time.Duration
	Protect        []string
	IncludeRunning bool
	DryRun         bool
}

func newPruneCommand() *cobra.Command {
	opts := pruneOptions{}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old application containers based on retention policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrune(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.KeepLast, "keep-last", 0, "Keep last N containers per image")
	cmd.Flags().DurationVar(&opts.KeepFor, "keep-for", 0, "Keep containers created within this duration")
	cmd.Flags().StringSliceVar(&opts.Protect, "protect", nil, "Container name or image to never prune")
	cmd.Flags().BoolVar(&opts.IncludeRunning, "include-running", false, "Also remove running containers")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", true, "Only report prune actions without deleting")
	return cmd
}

func runPrune(ctx context.Context, cmd *cobra.Command, opts pruneOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	result, err := service.PruneContainers(ctx, app.PruneRequest{
		KeepLast:       resolveInt(cmd, opts.KeepLast, "keep_last", "keep-last"),
		KeepFor:        resolveDuration(cmd, opts.KeepFor, "keep_for", "keep-for"),
		Protect:        resolveStrings(cmd, opts.Protect, "protect", "protect"),
		IncludeRunning: resolveBool(cmd, opts.IncludeRunning, "include_running", "include-running"),
		DryRun:         resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if result.DryRun {
		fmt.Fprintf(out, "dry-run: keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
		return nil
	}
	for _, name := range result.Deleted {
		fmt.Fprintf(out, "removed: %s\n", name)
	}
	fmt.Fprintf(out, "pruned containers: %d\n", result.DeleteCount)
	return nil
}
