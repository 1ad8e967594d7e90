package simulator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/BearBump/TrackSim/internal/metrics"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/BearBump/TrackSim/internal/services/route"
	"github.com/pkg/errors"
)

type Repository interface {
	ListAdvanceCandidates(ctx context.Context, updatedBefore time.Time, limit int) ([]*models.Order, error)
}

// Advancer is the state machine operation the simulator drives.
type Advancer interface {
	Advance(ctx context.Context, trackingID string, details models.StatusUpdateDetails) (*models.Order, error)
}

type Locations interface {
	RandomLocation() string
}

type Settings struct {
	Cooldown    time.Duration
	BatchSize   int
	Concurrency int
}

func DefaultSettings() Settings {
	return Settings{
		Cooldown:    time.Hour,
		BatchSize:   1000,
		Concurrency: 1,
	}
}

type Simulator struct {
	repo     Repository
	advancer Advancer

	// planner and locations share one non thread-safe source
	randMu    sync.Mutex
	planner   *Planner
	locations Locations

	settings Settings
	now      func() time.Time
	log      *slog.Logger

	busy      atomic.Bool
	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastTickUnixNano    atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalTicks          atomic.Int64
	skippedTicks        atomic.Int64
	totalClaimed        atomic.Int64
	totalAdvanced       atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, advancer Advancer, settings Settings, log *slog.Logger) *Simulator {
	def := DefaultSettings()
	if settings.Cooldown <= 0 {
		settings.Cooldown = def.Cooldown
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = def.BatchSize
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = def.Concurrency
	}
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{
		repo:              repo,
		advancer:          advancer,
		planner:           NewPlanner(DefaultPlannerConfig(), nil),
		locations:         route.New(nil),
		settings:          settings,
		now:               time.Now,
		log:               log.With("component", "simulator"),
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (s *Simulator) WithPlanner(p *Planner) *Simulator {
	s.planner = p
	return s
}

func (s *Simulator) WithLocations(l Locations) *Simulator {
	s.locations = l
	return s
}

func (s *Simulator) WithClock(now func() time.Time) *Simulator {
	s.now = now
	return s
}

type TickResult struct {
	Candidates int  `json:"candidates"`
	Advanced   int  `json:"advanced"`
	Errors     int  `json:"errors"`
	Skipped    bool `json:"skipped"`
}

// Tick evaluates every open order past the cooldown once. A tick that starts
// while another one is running is skipped.
func (s *Simulator) Tick(ctx context.Context) (TickResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.skippedTicks.Add(1)
		s.log.Warn("previous tick still running, skipping")
		return TickResult{Skipped: true}, nil
	}
	defer s.busy.Store(false)

	started := time.Now()
	defer func() { metrics.SimulatorTickDuration.Observe(time.Since(started).Seconds()) }()

	now := s.now().UTC()
	s.lastTickUnixNano.Store(now.UnixNano())
	s.totalTicks.Add(1)

	orders, err := s.repo.ListAdvanceCandidates(ctx, now.Add(-s.settings.Cooldown), s.settings.BatchSize)
	if err != nil {
		s.setLastError(err)
		return TickResult{}, errors.Wrap(err, "list advance candidates")
	}
	s.totalClaimed.Add(int64(len(orders)))

	var (
		advanced atomic.Int64
		failed   atomic.Int64
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, s.settings.Concurrency)
	for _, o := range orders {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		s.inFlight.Add(1)
		go func(o *models.Order) {
			defer func() {
				s.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			moved, err := s.processOne(ctx, o, now)
			if err != nil {
				failed.Add(1)
				s.totalErrors.Add(1)
				metrics.SimulatorErrorsTotal.Inc()
				s.setLastError(err)
				s.log.Error("advance order", "tracking_id", o.TrackingID, "status", o.Status, "error", err.Error())
				return
			}
			if moved {
				advanced.Add(1)
				s.totalAdvanced.Add(1)
				metrics.SimulatorAdvancedTotal.Inc()
			}
		}(o)
	}
	wg.Wait()

	res := TickResult{Candidates: len(orders), Advanced: int(advanced.Load()), Errors: int(failed.Load())}
	s.log.Info("tick done", "candidates", res.Candidates, "advanced", res.Advanced, "errors", res.Errors)
	return res, nil
}

func (s *Simulator) processOne(ctx context.Context, o *models.Order, now time.Time) (bool, error) {
	next, ok := o.Status.Next()
	if !ok {
		return false, nil
	}

	s.randMu.Lock()
	move, prob := s.planner.ShouldAdvance(o.Age(now), o.Status)
	var loc string
	if move {
		loc = s.locations.RandomLocation()
	}
	s.randMu.Unlock()

	if !move {
		s.log.Debug("order stays", "tracking_id", o.TrackingID, "status", o.Status, "probability", prob)
		return false, nil
	}

	_, err := s.advancer.Advance(ctx, o.TrackingID, models.StatusUpdateDetails{
		Location:    pointer.ToString(loc),
		Description: pointer.ToString(next.Description()),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Run serves Trigger requests until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.triggerCh:
			if _, err := s.Tick(ctx); err != nil {
				s.log.Error("triggered tick", "error", err.Error())
			}
		}
	}
}

// Trigger asks Run for an immediate tick (best-effort, non-blocking).
func (s *Simulator) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	LastTickAt    *time.Time `json:"lastTickAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalTicks    int64      `json:"totalTicks"`
	SkippedTicks  int64      `json:"skippedTicks"`
	TotalClaimed  int64      `json:"totalClaimed"`
	TotalAdvanced int64      `json:"totalAdvanced"`
	TotalErrors   int64      `json:"totalErrors"`
	InFlight      int64      `json:"inFlight"`
	LastError     string     `json:"lastError,omitempty"`
}

func (s *Simulator) Stats() Stats {
	st := Stats{
		StartedAt:     time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalTicks:    s.totalTicks.Load(),
		SkippedTicks:  s.skippedTicks.Load(),
		TotalClaimed:  s.totalClaimed.Load(),
		TotalAdvanced: s.totalAdvanced.Load(),
		TotalErrors:   s.totalErrors.Load(),
		InFlight:      s.inFlight.Load(),
	}
	if n := s.lastTickUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTickAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

func (s *Simulator) setLastError(err error) {
	s.lastErrorMu.Lock()
	s.lastError = err.Error()
	s.lastErrorMu.Unlock()
}
