package emulatorv1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/stretchr/testify/require"
)

func TestClient_GetTracking_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/tracking/UPS/TRK123", r.URL.Path)
		require.Equal(t, "k", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "carrier": "UPS",
  "track_number": "TRK123",
  "status": "OUT_FOR_DELIVERY",
  "status_raw": "OFD",
  "status_at": "2026-01-01T00:00:00Z",
  "events": [
    {"status":"IN_TRANSIT","status_raw":"IT","event_time":"2025-12-31T10:00:00Z"},
    {"status":"OUT_FOR_DELIVERY","status_raw":"OFD","event_time":"2026-01-01T00:00:00Z","location":"Courier - Miami","message":"With courier"}
  ]
}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second)
	res, err := c.GetTracking(context.Background(), "UPS", "TRK123")
	require.NoError(t, err)
	require.Equal(t, models.StatusOutForDelivery, res.Status)
	require.Equal(t, "OFD", res.StatusRaw)
	require.NotNil(t, res.StatusAt)
	require.WithinDuration(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *res.StatusAt, time.Second)
	require.Len(t, res.Checkpoints, 2)
	require.Equal(t, models.StatusInTransit, res.Checkpoints[0].Status)
	require.Equal(t, "Courier - Miami", res.Checkpoints[1].Location)
	require.Equal(t, "With courier", res.Checkpoints[1].Message)
}

func TestClient_GetTracking_429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", time.Second).GetTracking(context.Background(), "UPS", "123")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestClient_GetTracking_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", time.Second).GetTracking(context.Background(), "", "123")
	require.Error(t, err)
}
