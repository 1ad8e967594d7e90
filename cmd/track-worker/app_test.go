package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/TrackSim/config"
	"github.com/BearBump/TrackSim/internal/broker/kafka"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu    sync.Mutex
	calls int
}

func (r *fakeRepo) ListAdvanceCandidates(context.Context, time.Time, int) ([]*models.Order, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return []*models.Order{}, nil
}

func (r *fakeRepo) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeRepo) DeleteOrdersOlderThan(context.Context, time.Time) ([]string, error) { return nil, nil }

type noopAdvancer struct{}

func (noopAdvancer) Advance(context.Context, string, models.StatusUpdateDetails) (*models.Order, error) {
	return &models.Order{}, nil
}

// flakyConsumer fails its first call and then blocks until ctx ends.
type flakyConsumer struct {
	mu    sync.Mutex
	calls int
}

func (c *flakyConsumer) Consume(ctx context.Context, h kafka.Handler) error {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()
	if n == 1 {
		return errors.New("broker unavailable")
	}
	_ = h(ctx, []byte("TRK1"), []byte(`{}`))
	<-ctx.Done()
	return ctx.Err()
}

func (c *flakyConsumer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRunTrackWorker_ContextCanceled(t *testing.T) {
	cfg := &config.Config{Worker: config.WorkerConfig{HTTPAddr: "127.0.0.1:0"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunTrackWorker(ctx, cfg, workerDeps{candidates: &fakeRepo{}, advancer: noopAdvancer{}}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunTrackWorker_BadSchedule(t *testing.T) {
	cfg := &config.Config{Simulator: config.SimulatorConfig{Schedule: "every now and then"}}
	err := RunTrackWorker(context.Background(), cfg, workerDeps{candidates: &fakeRepo{}, advancer: noopAdvancer{}}, nil)
	require.Error(t, err)
}

func TestRunTrackWorker_HTTPAndTrigger(t *testing.T) {
	prev := consumerRestartDelay
	consumerRestartDelay = 10 * time.Millisecond
	t.Cleanup(func() { consumerRestartDelay = prev })

	repo := &fakeRepo{}
	consumer := &flakyConsumer{}
	handled := make(chan struct{}, 1)
	addrCh := make(chan string, 1)

	cfg := &config.Config{
		Worker:    config.WorkerConfig{HTTPAddr: "127.0.0.1:0"},
		Simulator: config.SimulatorConfig{Schedule: "@every 1h", CooldownMinutes: 30, RetentionDays: 30},
	}
	deps := workerDeps{
		candidates: repo,
		retention:  repo,
		advancer:   noopAdvancer{},
		consumer:   consumer,
		handler: func(context.Context, []byte, []byte) error {
			select {
			case handled <- struct{}{}:
			default:
			}
			return nil
		},
		ready:    func(context.Context) error { return nil },
		stats:    func() map[string]any { return map[string]any{"notificationsPublished": 3} },
		onListen: func(addr string) { addrCh <- addr },
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- RunTrackWorker(ctx, cfg, deps, nil) }()

	addr := <-addrCh
	base := "http://" + addr

	resp, err := http.Post(base+"/trigger", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool { return repo.Calls() >= 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(base + "/stats")
	require.NoError(t, err)
	var stats struct {
		Simulator struct {
			TotalTicks int64 `json:"totalTicks"`
		} `json:"simulator"`
		Extra map[string]any `json:"extra"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	_ = resp.Body.Close()
	require.Equal(t, float64(3), stats.Extra["notificationsPublished"])

	resp, err = http.Get(base + "/config")
	require.NoError(t, err)
	var settings map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&settings))
	_ = resp.Body.Close()
	require.Equal(t, "@every 1h", settings["schedule"])
	require.Equal(t, "@daily", settings["retentionSchedule"])

	resp, err = http.Get(base + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer was not restarted")
	}
	require.GreaterOrEqual(t, consumer.Calls(), 2)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestJobSchedules(t *testing.T) {
	s := jobSchedules(&config.Config{})
	require.Empty(t, s.Advancement)
	require.Empty(t, s.Retention)

	s = jobSchedules(&config.Config{Simulator: config.SimulatorConfig{RetentionDays: 7, RetentionSchedule: "0 3 * * *"}})
	require.Equal(t, "0 3 * * *", s.Retention)
}

func TestSimulatorSettings(t *testing.T) {
	s := simulatorSettings(&config.Config{Simulator: config.SimulatorConfig{CooldownMinutes: 15, BatchSize: 50, Concurrency: 4}})
	require.Equal(t, 15*time.Minute, s.Cooldown)
	require.Equal(t, 50, s.BatchSize)
	require.Equal(t, 4, s.Concurrency)
}
