package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oukeidos/iconic/internal/config"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/prompt"
	"github.com/oukeidos/iconic/internal/remote"
	"github.com/oukeidos/iconic/internal/service"
)

var (
	newFetcher = func() service.Fetcher { return remote.NewFetcher() }
	confirmer  = prompt.DefaultConfirmer
)

func openService(ctx context.Context, paths config.Paths, skipDrop bool) (*service.Service, error) {
	return service.Open(ctx, service.Options{
		Paths:          paths,
		Fetcher:        newFetcher(),
		SkipDropFolder: skipDrop,
	})
}

// withService opens the data directory for a one-shot command.
func withService(ctx context.Context, opts *globalOptions, fn func(context.Context, *service.Service) error) error {
	svc, err := openService(ctx, opts.paths(), false)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Shutdown requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
