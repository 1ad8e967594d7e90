package retrier

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ShouldRetry reports whether err is worth another attempt. Nil retries everything.
type ShouldRetry func(err error) bool

type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Randomization   float64
	Multiplier      float64

	ShouldRetry ShouldRetry
}

type Retrier struct {
	cfg Config
}

func New(cfg Config) *Retrier {
	return &Retrier{cfg: cfg}
}

// ExecuteWithContext runs fn with exponential backoff until it succeeds, a
// non-retryable error is returned, the elapsed budget runs out or ctx is done.
func (r *Retrier) ExecuteWithContext(ctx context.Context, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.cfg.InitialInterval),
		backoff.WithMaxInterval(r.cfg.MaxInterval),
		backoff.WithMaxElapsedTime(r.cfg.MaxElapsedTime),
		backoff.WithRandomizationFactor(r.cfg.Randomization),
		backoff.WithMultiplier(r.cfg.Multiplier),
	)

	op := func() error {
		err := fn(ctx)
		if err != nil && r.cfg.ShouldRetry != nil && !r.cfg.ShouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
