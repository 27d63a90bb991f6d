package cli

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"streamlit-packager/internal/server"
)

type serveOptions struct {
	sourceOptions
	Listen        string
	SourceRoot    string
	AllowedImages []string
	OutputDir     string
	ProbeHost     string
	Wait          time.Duration
}

func newServeCommand() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build and container API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.Listen, "listen", "127.0.0.1:3000", "Address to listen on")
	cmd.Flags().StringVar(&opts.SourceRoot, "source-root", "", "Directory request source and recipe paths resolve in (request paths are refused when empty)")
	cmd.Flags().StringSliceVar(&opts.AllowedImages, "allow-image", nil, "Image name prefix containers may be started from (repeatable, default any)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Directory for Dockerfiles and build reports written by builds")
	cmd.Flags().StringVar(&opts.ProbeHost, "probe-host", "127.0.0.1", "Host published ports are reachable on")
	cmd.Flags().DurationVar(&opts.Wait, "wait", time.Minute, "How long started containers may take to become ready")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts serveOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	router := server.New(service, server.Config{
		Source:        opts.request(cmd),
		SourceRoot:    resolveString(cmd, opts.SourceRoot, "source_root", "source-root"),
		AllowedImages: resolveStrings(cmd, opts.AllowedImages, "allow_image", "allow-image"),
		OutputDir:     resolveString(cmd, opts.OutputDir, "output", "output"),
		ProbeHost:     resolveString(cmd, opts.ProbeHost, "probe_host", "probe-host"),
		Wait:          resolveDuration(cmd, opts.Wait, "wait", "wait"),
	})
	listen := resolveString(cmd, opts.Listen, "listen", "listen")

	errs := make(chan error, 1)
	go func() {
		log.Ctx(ctx).Info().Str("listen", listen).Msg("api listening")
		errs <- router.Listen(listen)
	}()
	select {
	case err := <-errs:
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("api server failed").
				WithCause(err)
		}
		return nil
	case <-ctx.Done():
		return router.ShutdownWithTimeout(10 * time.Second)
	}
}
