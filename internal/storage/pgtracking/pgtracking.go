package pgtracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/TrackSim/internal/retrier"
	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Options struct {
	MaxConns    int32
	PingTimeout time.Duration
}

type Storage struct {
	db     *pgxpool.Pool
	getter *trmpgx.CtxGetter
	log    *slog.Logger
}

// New connects, waits for the database to answer and applies migrations.
func New(ctx context.Context, connString string, opts Options, log *slog.Logger) (*Storage, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	s := &Storage{db: db, getter: trmpgx.DefaultCtxGetter, log: log.With("component", "pgtracking")}
	if err := s.ping(ctx, opts.PingTimeout); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) ping(ctx context.Context, budget time.Duration) error {
	if budget <= 0 {
		budget = time.Minute
	}
	r := retrier.New(retrier.Config{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  budget,
		Randomization:   0.5,
		Multiplier:      2,
	})

	var attempt int
	err := r.ExecuteWithContext(ctx, func(ctx context.Context) error {
		attempt++
		s.log.Debug("pinging database", "attempt", attempt)
		return s.db.Ping(ctx)
	})
	if err != nil {
		s.log.Error("database is unreachable", "attempts", attempt, "error", err.Error())
		return errors.Wrap(err, "ping pg")
	}
	return nil
}

// Ping is a single reachability check used by health endpoints.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// TxManager returns a transaction manager bound to this pool. Repository
// calls made with its ctx join the running transaction.
func (s *Storage) TxManager() *TxManager {
	return NewTxManager(s.db)
}

func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Storage) q(ctx context.Context) trmpgx.Tr {
	return s.getter.DefaultTrOrDB(ctx, s.db)
}
