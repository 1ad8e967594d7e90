package simulator

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/TrackSim/internal/metrics"
	"github.com/pkg/errors"
)

type RetentionRepository interface {
	DeleteOrdersOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

// CacheEvictor drops cached tracking snapshots of deleted orders.
type CacheEvictor interface {
	ForgetTrackingInfo(ctx context.Context, trackingIDs []string)
}

// Cleaner removes orders older than the retention window.
type Cleaner struct {
	repo          RetentionRepository
	evictor       CacheEvictor
	retentionDays int
	now           func() time.Time
	log           *slog.Logger
}

func NewCleaner(repo RetentionRepository, retentionDays int, log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{
		repo:          repo,
		retentionDays: retentionDays,
		now:           time.Now,
		log:           log.With("component", "retention"),
	}
}

func (c *Cleaner) WithEvictor(e CacheEvictor) *Cleaner {
	c.evictor = e
	return c
}

// Run deletes expired orders and evicts their cached snapshots. A zero
// retention disables it.
func (c *Cleaner) Run(ctx context.Context) (int64, error) {
	if c.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := c.now().UTC().AddDate(0, 0, -c.retentionDays)
	ids, err := c.repo.DeleteOrdersOlderThan(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "delete expired orders")
	}
	if c.evictor != nil && len(ids) > 0 {
		c.evictor.ForgetTrackingInfo(ctx, ids)
	}
	n := int64(len(ids))
	metrics.RetentionDeletedTotal.Add(float64(n))
	c.log.Info("retention cleanup done", "deleted", n, "cutoff", cutoff)
	return n, nil
}
