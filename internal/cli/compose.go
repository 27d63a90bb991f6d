package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"streamlit-packager/internal/app"
)

type composeOptions struct {
	sourceOptions
	Service   string
	HostPort  int
	OutputDir string
	Build     bool
	Stdout    bool
}

func newComposeCommand() *cobra.Command {
	opts := composeOptions{}
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Emit a compose service and docker run command for the application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompose(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.Service, "service", "", "Compose service and container name")
	cmd.Flags().IntVar(&opts.HostPort, "host-port", 0, "Host port to publish on (defaults to the application port)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().BoolVar(&opts.Build, "build", false, "Build from source with the generated Dockerfile")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Print the compose file instead of writing it")
	return cmd
}

func runCompose(ctx context.Context, cmd *cobra.Command, opts composeOptions) error {
	stdout := resolveBool(cmd, opts.Stdout, "stdout", "stdout")
	outputDir := resolveString(cmd, opts.OutputDir, "output", "output")
	if stdout && !opts.Build {
		outputDir = ""
	}
	result, err := app.NewLocalService().Compose(ctx, app.ComposeRequest{
		SourceRequest: opts.request(cmd),
		Service:       resolveString(cmd, opts.Service, "service", "service"),
		HostPort:      resolveInt(cmd, opts.HostPort, "host_port", "host-port"),
		OutputDir:     outputDir,
		Build:         resolveBool(cmd, opts.Build, "compose_build", "build"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if stdout {
		data, err := yaml.Marshal(result.Project)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
		return nil
	}
	fmt.Fprintf(out, "compose: %s\n", result.Path)
	fmt.Fprintf(out, "run: %s\n", strings.Join(result.RunArgs, " "))
	return nil
}
