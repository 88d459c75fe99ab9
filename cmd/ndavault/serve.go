package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/ndavault/pkg/httpserver"
	"github.com/dmitrymomot/ndavault/pkg/logger"
	"github.com/dmitrymomot/ndavault/pkg/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily alert scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	log := newLogger(s.App.Env)

	in, err := connectInfra(ctx, s, log, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			log.Error("failed to close connections", logger.Error(err))
		}
	}()

	rt, err := buildRuntime(ctx, s, in, log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpserver.NewFromConfig(s.HTTP, httpserver.WithLogger(log)).Run(ctx, rt.handler)
	})
	if rt.scheduler != nil {
		g.Go(func() error { return rt.scheduler.Start(ctx) })
	}
	if s.App.MetricsAddr != "" {
		g.Go(func() error { return metrics.Serve(ctx, s.App.MetricsAddr, rt.registry, log) })
	}

	log.InfoContext(ctx, "ndavault started",
		slog.String("version", Version),
		slog.Bool("scheduler", rt.scheduler != nil),
		slog.Bool("redis", in.redis != nil),
	)
	return g.Wait()
}
