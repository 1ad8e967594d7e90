package fake

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/BearBump/TrackSim/internal/integrations/carrier"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/BearBump/TrackSim/internal/services/route"
)

// Client is an in-process carrier used when no emulator is configured. The
// reported status only depends on (carrier, track number).
type Client struct {
	now func() time.Time
}

func New() *Client { return &Client{now: time.Now} }

func (f *Client) GetTracking(ctx context.Context, carrierCode, trackNumber string) (carrier.TrackingResult, error) {
	now := f.now().UTC()

	h := fnv.New32a()
	_, _ = h.Write([]byte(carrierCode))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(trackNumber))
	v := h.Sum32()

	// one track in ten is lost, the rest spread over the forward sequence
	status := models.Sequence[int(v%uint32(len(models.Sequence)))]
	if v%10 == 0 {
		status = models.StatusFailed
	}

	loc := route.Seeded(trackNumber).RandomLocation()
	return carrier.TrackingResult{
		Status:    status,
		StatusRaw: string(status),
		StatusAt:  &now,
		Checkpoints: []carrier.Checkpoint{{
			Status:    status,
			StatusRaw: string(status),
			EventTime: now,
			Location:  loc,
			Message:   "carrier update",
		}},
	}, nil
}
