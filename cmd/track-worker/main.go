package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/TrackSim/config"
	"github.com/BearBump/TrackSim/internal/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("failed to parse config: %v", err))
	}

	log, logCloser := logger.New(cfg.Log, "track-worker")
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, cleanup, err := buildWorkerDeps(ctx, cfg, log)
	defer cleanup()
	if err != nil {
		panic(err)
	}

	if err := RunTrackWorker(ctx, cfg, deps, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("track-worker stopped", "error", err.Error())
		panic(err)
	}
}
