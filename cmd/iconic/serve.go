package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oukeidos/iconic/internal/host"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/watch"
)

type serveOptions struct {
	listen  string
	noWatch bool
}

func newServeCmd(gopts *globalOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Rotate icons and answer status queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(gopts, &opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Address to listen on (env ICONIC_LISTEN, default 127.0.0.1:25566)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Do not watch the data directory for changes")
	return cmd
}

func runServe(gopts *globalOptions, opts *serveOptions) error {
	sigCtx, stop := signalContext()
	defer stop()

	paths := gopts.paths()
	svc, err := openService(sigCtx, paths, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	if err := svc.StartRotation(ctx); err != nil {
		return err
	}

	if !opts.noWatch {
		w := watch.New(paths, watch.Handlers{
			Drop: func(ctx context.Context) {
				if _, err := svc.ProcessInput(ctx); err != nil {
					logger.Warn("Drop folder processing failed", "error", err)
				}
			},
			Icons: func(ctx context.Context) {
				if _, err := svc.Refresh(ctx); err != nil {
					logger.Warn("Icon refresh failed", "error", err)
				}
			},
			Config: func(ctx context.Context) {
				if err := svc.ReloadConfig(ctx); err != nil {
					logger.Warn("Config reload failed", "error", err)
				}
			},
		})
		svc.Go("watch", func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("File watcher stopped", "error", err)
			}
		})
	}

	listen := opts.listen
	if listen == "" {
		listen = gopts.env.Listen
	}
	logger.Info("Data directory", "path", paths.Root)
	return host.NewServer(listen, svc).ListenAndServe(ctx)
}
