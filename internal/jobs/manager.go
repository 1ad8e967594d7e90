package jobs

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

type Schedules struct {
	Advancement string
	Retention   string // empty disables the retention job
}

// Manager owns the cron instance that drives every job.
type Manager struct {
	cron      *cron.Cron
	schedules Schedules
	logger    *slog.Logger

	advancement *AdvancementJob
	retention   *RetentionJob
}

func NewManager(ticker Ticker, cleaner Cleaner, schedules Schedules, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if schedules.Advancement == "" {
		schedules.Advancement = "@hourly"
	}
	m := &Manager{
		cron:        cron.New(),
		schedules:   schedules,
		logger:      logger.With("component", "jobs"),
		advancement: NewAdvancementJob(ticker, logger),
	}
	if cleaner != nil {
		m.retention = NewRetentionJob(cleaner, logger)
	}
	return m
}

// StartAll registers the jobs and starts the scheduler. Jobs run with ctx.
func (m *Manager) StartAll(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.schedules.Advancement, func() { m.advancement.run(ctx) }); err != nil {
		return errors.Wrapf(err, "schedule advancement job %q", m.schedules.Advancement)
	}
	if m.retention != nil && m.schedules.Retention != "" {
		if _, err := m.cron.AddFunc(m.schedules.Retention, func() { m.retention.run(ctx) }); err != nil {
			return errors.Wrapf(err, "schedule retention job %q", m.schedules.Retention)
		}
	}

	m.cron.Start()
	m.logger.InfoContext(ctx, "jobs started",
		"advancement", m.schedules.Advancement,
		"retention", m.schedules.Retention,
	)
	return nil
}

// StopAll stops scheduling and waits for running jobs.
func (m *Manager) StopAll() {
	<-m.cron.Stop().Done()
	m.logger.Info("jobs stopped")
}

// Entries is the number of scheduled jobs.
func (m *Manager) Entries() int {
	return len(m.cron.Entries())
}
