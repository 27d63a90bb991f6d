package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
)

type pushOptions struct {
	Report string
	Target string
}

func newPushCommand() *cobra.Command {
	opts := pushOptions{}
	cmd := &cobra.Command{
		Use:   "push [image]",
		Short: "Push the built image to a registry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image := ""
			if len(args) == 1 {
				image = args[0]
			}
			return runPush(cmd.Context(), cmd, image, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Report, "report", "", "Build report naming the image (file or output directory)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Destination reference (defaults to the image reference)")
	return cmd
}

func runPush(ctx context.Context, cmd *cobra.Command, image string, opts pushOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	result, err := service.Push(ctx, app.PushRequest{
		Image:      image,
		Target:     resolveString(cmd, opts.Target, "push_target", "target"),
		ReportPath: resolveString(cmd, opts.Report, "report", "report"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pushed: %s@%s\n", result.Reference, result.Digest)
	return nil
}

type exportOptions struct {
	Report string
	Output string
}

func newExportCommand() *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export [image]",
		Short: "Save the built image as a tarball",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image := ""
			if len(args) == 1 {
				image = args[0]
			}
			service, err := newAppService()
			if err != nil {
				return err
			}
			result, err := service.Export(cmd.Context(), app.ExportRequest{
				Image:      image,
				ReportPath: resolveString(cmd, opts.Report, "report", "report"),
				Output:     resolveString(cmd, opts.Output, "export_output", "output"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported: %s (%d bytes)\n", result.Path, result.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Report, "report", "", "Build report naming the image (file or output directory)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Archive path (defaults to the image name with .tar)")
	return cmd
}
