package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu       sync.Mutex
	orders   []*models.Order
	err      error
	before   time.Time
	limit    int
	calls    int
	block    chan struct{}
	listedCh chan struct{}
}

func (r *fakeRepo) ListAdvanceCandidates(ctx context.Context, updatedBefore time.Time, limit int) ([]*models.Order, error) {
	r.mu.Lock()
	r.calls++
	r.before, r.limit = updatedBefore, limit
	r.mu.Unlock()
	if r.listedCh != nil {
		close(r.listedCh)
	}
	if r.block != nil {
		<-r.block
	}
	return r.orders, r.err
}

type fakeAdvancer struct {
	mu      sync.Mutex
	calls   map[string]models.StatusUpdateDetails
	failFor map[string]error
}

func (a *fakeAdvancer) Advance(ctx context.Context, trackingID string, d models.StatusUpdateDetails) (*models.Order, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failFor[trackingID]; err != nil {
		return nil, err
	}
	if a.calls == nil {
		a.calls = map[string]models.StatusUpdateDetails{}
	}
	a.calls[trackingID] = d
	return &models.Order{TrackingID: trackingID}, nil
}

type fixedLocations string

func (l fixedLocations) RandomLocation() string { return string(l) }

// alwaysRand makes every draw equal 1, so every order advances.
type alwaysRand struct{}

func (alwaysRand) Intn(int) int { return 0 }

// neverRand makes every draw equal 100, above any probability under the cap.
type neverRand struct{}

func (neverRand) Intn(n int) int { return n - 1 }

func order(id string, st models.Status, age time.Duration) *models.Order {
	return &models.Order{TrackingID: id, Status: st, CreatedAt: now.Add(-age), UpdatedAt: now.Add(-2 * time.Hour)}
}

func newSim(repo Repository, adv Advancer, r Rand, concurrency int) *Simulator {
	return New(repo, adv, Settings{Concurrency: concurrency}, nil).
		WithPlanner(NewPlanner(DefaultPlannerConfig(), r)).
		WithLocations(fixedLocations("Regional Hub - Denver")).
		WithClock(func() time.Time { return now })
}

func TestSimulator_Tick_advancesWithSynthesizedDetails(t *testing.T) {
	repo := &fakeRepo{orders: []*models.Order{
		order("A", models.StatusProcessing, time.Hour),
		order("B", models.StatusInTransit, 3*24*time.Hour),
	}}
	adv := &fakeAdvancer{}
	s := newSim(repo, adv, alwaysRand{}, 1)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, TickResult{Candidates: 2, Advanced: 2}, res)

	require.Equal(t, now.Add(-time.Hour), repo.before)
	require.Equal(t, DefaultSettings().BatchSize, repo.limit)

	d := adv.calls["A"]
	require.Equal(t, "Regional Hub - Denver", *d.Location)
	require.Equal(t, models.StatusConfirmed.Description(), *d.Description)
	require.Equal(t, models.StatusOutForDelivery.Description(), *adv.calls["B"].Description)
}

func TestSimulator_Tick_lowDrawKeepsOrders(t *testing.T) {
	repo := &fakeRepo{orders: []*models.Order{order("A", models.StatusShipped, time.Hour)}}
	adv := &fakeAdvancer{}
	s := newSim(repo, adv, neverRand{}, 1)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.Advanced)
	require.Empty(t, adv.calls)
}

func TestSimulator_Tick_isolatesPerOrderFailures(t *testing.T) {
	repo := &fakeRepo{orders: []*models.Order{
		order("A", models.StatusProcessing, time.Hour),
		order("B", models.StatusPacked, time.Hour),
		order("C", models.StatusShipped, time.Hour),
	}}
	adv := &fakeAdvancer{failFor: map[string]error{
		"A": models.ErrNotFound,
		"B": models.ErrPersistence,
	}}
	s := newSim(repo, adv, alwaysRand{}, 3)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Advanced)
	require.Equal(t, 2, res.Errors)
	require.Contains(t, adv.calls, "C")

	st := s.Stats()
	require.Equal(t, int64(2), st.TotalErrors)
	require.Equal(t, int64(1), st.TotalAdvanced)
	require.Equal(t, int64(3), st.TotalClaimed)
	require.NotEmpty(t, st.LastError)
	require.NotNil(t, st.LastTickAt)
}

func TestSimulator_Tick_skipsTerminalOrders(t *testing.T) {
	repo := &fakeRepo{orders: []*models.Order{order("D", models.StatusDelivered, time.Hour)}}
	adv := &fakeAdvancer{}
	s := newSim(repo, adv, alwaysRand{}, 1)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.Advanced)
	require.Empty(t, adv.calls)
}

func TestSimulator_Tick_repoError(t *testing.T) {
	boom := errors.New("db down")
	s := newSim(&fakeRepo{err: boom}, &fakeAdvancer{}, alwaysRand{}, 1)

	_, err := s.Tick(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, boom.Error(), s.Stats().LastError)
}

func TestSimulator_Tick_skipsOverlap(t *testing.T) {
	repo := &fakeRepo{block: make(chan struct{}), listedCh: make(chan struct{})}
	s := newSim(repo, &fakeAdvancer{}, alwaysRand{}, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Tick(context.Background())
	}()
	<-repo.listedCh

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	require.True(t, res.Skipped)

	close(repo.block)
	<-done
	require.Equal(t, int64(1), s.Stats().SkippedTicks)
	require.Equal(t, 1, repo.calls)
}

func TestSimulator_Run_TriggerAndCancel(t *testing.T) {
	repo := &fakeRepo{}
	s := newSim(repo, &fakeAdvancer{}, alwaysRand{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	s.Trigger()
	require.Eventually(t, func() bool { return s.Stats().TotalTicks == 1 }, time.Second, 5*time.Millisecond)
	require.NotNil(t, s.Stats().LastTriggerAt)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

type fakeRetention struct {
	cutoff time.Time
	ids    []string
	calls  int
}

func (f *fakeRetention) DeleteOrdersOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	f.calls++
	f.cutoff = cutoff
	return f.ids, nil
}

type recordingEvictor struct {
	forgotten []string
}

func (e *recordingEvictor) ForgetTrackingInfo(_ context.Context, ids []string) {
	e.forgotten = append(e.forgotten, ids...)
}

func TestCleaner_Run(t *testing.T) {
	repo := &fakeRetention{ids: []string{"TRK1", "TRK2", "TRK3", "TRK4"}}
	ev := &recordingEvictor{}
	c := NewCleaner(repo, 30, nil).WithEvictor(ev)
	c.now = func() time.Time { return now }

	n, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.Equal(t, now.AddDate(0, 0, -30), repo.cutoff)
	require.Equal(t, []string{"TRK1", "TRK2", "TRK3", "TRK4"}, ev.forgotten)

	disabled := NewCleaner(repo, 0, nil).WithEvictor(ev)
	n, err = disabled.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, 1, repo.calls)
	require.Len(t, ev.forgotten, 4)
}

func TestCleaner_NothingExpired(t *testing.T) {
	ev := &recordingEvictor{}
	c := NewCleaner(&fakeRetention{}, 7, nil).WithEvictor(ev)

	n, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, ev.forgotten)
}
