package jobs

import (
	"context"
	"log/slog"
)

type Cleaner interface {
	Run(ctx context.Context) (int64, error)
}

type RetentionJob struct {
	cleaner Cleaner
	logger  *slog.Logger
}

func NewRetentionJob(cleaner Cleaner, logger *slog.Logger) *RetentionJob {
	return &RetentionJob{
		cleaner: cleaner,
		logger:  logger.With("component", "retention_job"),
	}
}

func (j *RetentionJob) run(ctx context.Context) {
	if _, err := j.cleaner.Run(ctx); err != nil {
		j.logger.ErrorContext(ctx, "retention cleanup failed", "error", err)
	}
}
