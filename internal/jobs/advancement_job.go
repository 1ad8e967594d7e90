package jobs

import (
	"context"
	"log/slog"

	"github.com/BearBump/TrackSim/internal/services/simulator"
)

type Ticker interface {
	Tick(ctx context.Context) (simulator.TickResult, error)
}

type AdvancementJob struct {
	ticker Ticker
	logger *slog.Logger
}

func NewAdvancementJob(ticker Ticker, logger *slog.Logger) *AdvancementJob {
	return &AdvancementJob{
		ticker: ticker,
		logger: logger.With("component", "advancement_job"),
	}
}

func (j *AdvancementJob) run(ctx context.Context) {
	res, err := j.ticker.Tick(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "advancement tick failed", "error", err)
		return
	}
	if res.Skipped {
		return
	}
	j.logger.DebugContext(ctx, "advancement tick finished", "candidates", res.Candidates, "advanced", res.Advanced)
}
