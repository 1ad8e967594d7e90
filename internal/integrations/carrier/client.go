package carrier

import (
	"context"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
)

type Checkpoint struct {
	Status    models.Status
	StatusRaw string
	EventTime time.Time
	Location  string
	Message   string
}

// TrackingResult is a carrier response normalized to our status set.
type TrackingResult struct {
	Status      models.Status
	StatusRaw   string
	StatusAt    *time.Time
	Checkpoints []Checkpoint
}

type Client interface {
	GetTracking(ctx context.Context, carrierCode, trackNumber string) (TrackingResult, error)
}
