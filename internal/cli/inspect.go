package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
)

type inspectOptions struct {
	Report string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a build report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Report, "report", "out", "Build report file or output directory")
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	report, err := app.NewLocalService().InspectBuild(app.InspectRequest{
		ReportPath: resolveString(cmd, opts.Report, "report", "report"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "image: %s\n", report.Image)
	fmt.Fprintf(out, "image id: %s\n", report.ImageID)
	base := report.BaseImage
	if report.BaseDigest != "" {
		base += "@" + report.BaseDigest
	}
	fmt.Fprintf(out, "base: %s\n", base)
	fmt.Fprintf(out, "dependency key: %s\n", report.Keys.Dependency)
	fmt.Fprintf(out, "source key: %s\n", report.Keys.Source)
	fmt.Fprintf(out, "command: %s\n", strings.Join(report.Launch.Argv, " "))
	return nil
}
