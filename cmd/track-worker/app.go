package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/TrackSim/config"
	"github.com/BearBump/TrackSim/internal/broker/kafka"
	"github.com/BearBump/TrackSim/internal/jobs"
	"github.com/BearBump/TrackSim/internal/services/simulator"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type notificationConsumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
}

type backgroundTask interface {
	Run(ctx context.Context) error
}

// workerDeps is everything the worker needs from the outside world. Nil
// consumer disables the notification mailer loop.
type workerDeps struct {
	candidates simulator.Repository
	retention  simulator.RetentionRepository
	evictor    simulator.CacheEvictor
	advancer   simulator.Advancer

	consumer notificationConsumer
	handler  kafka.Handler

	tasks []backgroundTask
	ready func(ctx context.Context) error
	stats func() map[string]any

	swaggerPath string
	onListen    func(httpAddr string)
}

var consumerRestartDelay = 5 * time.Second

func simulatorSettings(cfg *config.Config) simulator.Settings {
	return simulator.Settings{
		Cooldown:    time.Duration(cfg.Simulator.CooldownMinutes) * time.Minute,
		BatchSize:   cfg.Simulator.BatchSize,
		Concurrency: cfg.Simulator.Concurrency,
	}
}

func jobSchedules(cfg *config.Config) jobs.Schedules {
	s := jobs.Schedules{Advancement: cfg.Simulator.Schedule}
	if cfg.Simulator.RetentionDays > 0 {
		s.Retention = cfg.Simulator.RetentionSchedule
		if s.Retention == "" {
			s.Retention = "@daily"
		}
	}
	return s
}

func RunTrackWorker(ctx context.Context, cfg *config.Config, deps workerDeps, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	sim := simulator.New(deps.candidates, deps.advancer, simulatorSettings(cfg), log)

	var cleaner jobs.Cleaner
	if deps.retention != nil && cfg.Simulator.RetentionDays > 0 {
		cleaner = simulator.NewCleaner(deps.retention, cfg.Simulator.RetentionDays, log).WithEvictor(deps.evictor)
	}
	schedules := jobSchedules(cfg)
	mgr := jobs.NewManager(sim, cleaner, schedules, log)
	if err := mgr.StartAll(ctx); err != nil {
		return err
	}
	defer mgr.StopAll()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sim.Run(gctx) })
	g.Go(func() error {
		return runWorkerHTTPServer(gctx, workerHTTPOpts{
			httpAddr:    cfg.Worker.HTTPAddr,
			swaggerPath: deps.swaggerPath,
			onListen:    deps.onListen,
			sim:         sim,
			ready:       deps.ready,
			extraStats:  deps.stats,
			settings: map[string]any{
				"schedule":          schedules.Advancement,
				"cooldownMinutes":   cfg.Simulator.CooldownMinutes,
				"batchSize":         cfg.Simulator.BatchSize,
				"concurrency":       cfg.Simulator.Concurrency,
				"retentionDays":     cfg.Simulator.RetentionDays,
				"retentionSchedule": schedules.Retention,
			},
		})
	})
	if deps.consumer != nil && deps.handler != nil {
		g.Go(func() error { return consumeLoop(gctx, deps.consumer, deps.handler, log) })
	}
	for _, t := range deps.tasks {
		t := t
		g.Go(func() error { return t.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

// consumeLoop restarts consumption after handler or broker errors.
func consumeLoop(ctx context.Context, c notificationConsumer, h kafka.Handler, log *slog.Logger) error {
	for {
		err := c.Consume(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("notification consumer stopped, restarting", "error", err, "delay", consumerRestartDelay.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(consumerRestartDelay):
		}
	}
}
