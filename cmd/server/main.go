package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dockstats/dockstats/internal/api"
	"github.com/dockstats/dockstats/internal/config"
	"github.com/dockstats/dockstats/internal/metrics"
	"github.com/dockstats/dockstats/internal/runtime"
	"github.com/dockstats/dockstats/internal/stats"
	"github.com/dockstats/dockstats/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("dockstats starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"runtime_endpoint", cfg.Runtime.Endpoint,
		"max_in_flight", cfg.Stats.MaxInFlight,
		"request_timeout", cfg.Stats.RequestTimeout,
		"stream_targets", len(cfg.Stream.Targets),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Container runtime collaborator — built once, shared by every request.
	rt, err := runtime.NewDocker(cfg.Runtime.Endpoint, logger)
	if err != nil {
		slog.Error("failed to create container runtime client", "err", err)
		os.Exit(1)
	}

	fetcher := stats.NewFetcher(rt, cfg.Stats.UnitTimeout, logger)
	agg := stats.NewAggregator(fetcher, cfg.Stats.MaxInFlight, cfg.Stats.RequestTimeout, logger)
	reg := metrics.New()

	// WebSocket hub — broadcasts the configured watch list every interval.
	hub := ws.New(agg, cfg.Stream.Interval, cfg.Stream.Targets)
	go hub.Run(ctx)

	// Watch config file for hot-reload — only the stream watch list is
	// swapped at runtime; listener and fan-out settings need a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			hub.SetTargets(updated.Stream.Targets)
			slog.Info("stream watch list updated", "targets", len(updated.Stream.Targets))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	apiHandler := api.New(agg, rt, cfg.Runtime.PingTimeout, reg, logger)

	httpMux := http.NewServeMux()
	httpMux.Handle("/stats", apiHandler)
	httpMux.Handle("/health", apiHandler)
	httpMux.Handle("/metrics", reg)
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("dockstats shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
