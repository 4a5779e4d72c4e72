package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsight/features/batch"
	"finsight/internal/app"
	"finsight/internal/config"
	"finsight/internal/logger"
)

func main() {
	slog.SetDefault(slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	if deps.DB != nil {
		defer deps.DB.Close()
	}

	// Finished batches in the memory store are evicted after the TTL so
	// a long-lived process does not accumulate them forever.
	if memStore, ok := deps.Progress.(*batch.MemoryStore); ok && cfg.ProgressTTLMinutes > 0 {
		ttl := time.Duration(cfg.ProgressTTLMinutes) * time.Minute
		go memStore.RunEviction(ctx, ttl, time.Minute)
	}

	application, err := app.New(cfg, deps.LLM, deps.VectorStore, deps.Progress)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
