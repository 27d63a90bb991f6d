package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"streamlit-packager/internal/app"
	"streamlit-packager/internal/shared"
)

type runOptions struct {
	Image     string
	Report    string
	Name      string
	HostPort  int
	Port      int
	HostIP    string
	Env       []string
	Remove    bool
	NoWait    bool
	ProbeHost string
	Health    bool
	Wait      time.Duration
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Start the application container and wait until it listens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Image = args[0]
			}
			return runRun(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Report, "report", "", "Build report naming the image (file or output directory)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Container name")
	cmd.Flags().IntVar(&opts.HostPort, "host-port", 0, "Host port to publish on (defaults to --port)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Container port the application listens on")
	cmd.Flags().StringVar(&opts.HostIP, "host-ip", "", "Host address to bind the published port to")
	cmd.Flags().StringSliceVar(&opts.Env, "env", nil, "Environment variable KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&opts.Remove, "rm", false, "Remove the container when it exits")
	cmd.Flags().BoolVar(&opts.NoWait, "no-wait", false, "Return once the container has started")
	cmd.Flags().StringVar(&opts.ProbeHost, "probe-host", "127.0.0.1", "Host the published port is reachable on")
	cmd.Flags().BoolVar(&opts.Health, "health", true, "Wait for the Streamlit health endpoint instead of the bare port")
	cmd.Flags().DurationVar(&opts.Wait, "wait", time.Minute, "How long to wait for the application")
	return cmd
}

func runRun(ctx context.Context, cmd *cobra.Command, opts runOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	req, err := runRequest(cmd, service, opts)
	if err != nil {
		return err
	}
	result, err := service.Run(ctx, req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "container: %s\n", shared.ShortID(result.Container.ID))
	if result.URL != "" {
		fmt.Fprintf(out, "url: %s\n", result.URL)
	}
	return nil
}

// runRequest resolves the run flags. A build report supplies the image
// and the container port unless they are given explicitly.
func runRequest(cmd *cobra.Command, service app.Service, opts runOptions) (app.RunRequest, error) {
	image := strings.TrimSpace(opts.Image)
	port := resolveInt(cmd, opts.Port, "port", "port")
	if report := resolveString(cmd, opts.Report, "report", "report"); report != "" {
		built, err := service.InspectBuild(app.InspectRequest{ReportPath: report})
		if err != nil {
			return app.RunRequest{}, err
		}
		if image == "" {
			image = built.Image
		}
		if port == 0 {
			port = built.Launch.Port
		}
	}
	req := app.RunRequest{
		Image:     image,
		Name:      resolveString(cmd, opts.Name, "name", "name"),
		HostPort:  resolveInt(cmd, opts.HostPort, "host_port", "host-port"),
		Port:      port,
		HostIP:    resolveString(cmd, opts.HostIP, "host_ip", "host-ip"),
		Env:       resolveStrings(cmd, opts.Env, "env", "env"),
		Remove:    resolveBool(cmd, opts.Remove, "rm", "rm"),
		ProbeHost: resolveString(cmd, opts.ProbeHost, "probe_host", "probe-host"),
		Health:    resolveBool(cmd, opts.Health, "health", "health"),
		Wait:      resolveDuration(cmd, opts.Wait, "wait", "wait"),
	}
	if resolveBool(cmd, opts.NoWait, "no_wait", "no-wait") {
		req.ProbeHost = ""
	}
	return req, nil
}

type stopOptions struct {
	TimeoutSec int
	Remove     bool
}

func newStopCommand() *cobra.Command {
	opts := stopOptions{}
	cmd := &cobra.Command{
		Use:   "stop <container>",
		Short: "Stop a running application container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newAppService()
			if err != nil {
				return err
			}
			if err := service.Stop(cmd.Context(), app.StopRequest{
				ID:         args[0],
				TimeoutSec: resolveInt(cmd, opts.TimeoutSec, "stop_timeout", "timeout"),
				Remove:     resolveBool(cmd, opts.Remove, "rm", "rm"),
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped: %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.TimeoutSec, "timeout", 10, "Seconds to wait before killing the container")
	cmd.Flags().BoolVar(&opts.Remove, "rm", false, "Remove the container after stopping it")
	return cmd
}

func newLogsCommand() *cobra.Command {
	var tail string
	cmd := &cobra.Command{
		Use:   "logs <container>",
		Short: "Print the logs of an application container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newAppService()
			if err != nil {
				return err
			}
			return service.Logs(cmd.Context(), app.LogsRequest{
				ID:     args[0],
				Tail:   resolveString(cmd, tail, "tail", "tail"),
				Output: cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().StringVar(&tail, "tail", "all", "Number of lines from the end of the logs")
	return cmd
}

func newListCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List containers started by streamlit-packager",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := newAppService()
			if err != nil {
				return err
			}
			containers, err := service.List(cmd.Context(), app.ListRequest{All: all})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tIMAGE\tSTATE\tPORTS")
			for _, c := range containers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shared.ShortID(c.ID), c.Name, c.Image, c.State, strings.Join(c.Ports, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include stopped containers")
	return cmd
}

type probeOptions struct {
	Host    string
	Port    int
	Health  bool
	Timeout time.Duration
}

func newProbeCommand() *cobra.Command {
	opts := probeOptions{}
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that an application answers on its port",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := app.ProbeRequest{
				Host:    resolveString(cmd, opts.Host, "probe_host", "host"),
				Port:    resolveInt(cmd, opts.Port, "port", "port"),
				Health:  resolveBool(cmd, opts.Health, "health", "health"),
				Timeout: resolveDuration(cmd, opts.Timeout, "probe_timeout", "timeout"),
			}
			if err := app.NewLocalService().Probe(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Host, "host", "127.0.0.1", "Host to probe")
	cmd.Flags().IntVar(&opts.Port, "port", 8501, "Port to probe")
	cmd.Flags().BoolVar(&opts.Health, "health", false, "Also require the Streamlit health endpoint")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "How long to wait")
	return cmd
}
