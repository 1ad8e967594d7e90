package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/BearBump/TrackSim/internal/services/simulator"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeTicker struct {
	calls int
	err   error
}

func (f *fakeTicker) Tick(ctx context.Context) (simulator.TickResult, error) {
	f.calls++
	return simulator.TickResult{Candidates: 1, Advanced: 1}, f.err
}

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) Run(ctx context.Context) (int64, error) {
	f.calls++
	return 0, f.err
}

func TestManager_StartAll_registersJobs(t *testing.T) {
	m := NewManager(&fakeTicker{}, &fakeCleaner{}, Schedules{Retention: "@daily"}, discard)
	require.NoError(t, m.StartAll(context.Background()))
	t.Cleanup(m.StopAll)

	require.Equal(t, 2, m.Entries())
	require.Equal(t, "@hourly", m.schedules.Advancement)
}

func TestManager_StartAll_retentionDisabled(t *testing.T) {
	m := NewManager(&fakeTicker{}, &fakeCleaner{}, Schedules{Advancement: "*/5 * * * *"}, discard)
	require.NoError(t, m.StartAll(context.Background()))
	t.Cleanup(m.StopAll)

	require.Equal(t, 1, m.Entries())
}

func TestManager_StartAll_badSchedule(t *testing.T) {
	m := NewManager(&fakeTicker{}, nil, Schedules{Advancement: "every now and then"}, discard)
	require.Error(t, m.StartAll(context.Background()))
}

func TestJobs_runSwallowErrors(t *testing.T) {
	ticker := &fakeTicker{err: errors.New("db down")}
	cleaner := &fakeCleaner{err: errors.New("db down")}

	NewAdvancementJob(ticker, discard).run(context.Background())
	NewRetentionJob(cleaner, discard).run(context.Background())

	require.Equal(t, 1, ticker.calls)
	require.Equal(t, 1, cleaner.calls)
}
