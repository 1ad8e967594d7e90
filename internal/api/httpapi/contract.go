package httpapi

import (
	"context"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
)

// Service is the subset of trackings.Service exposed over HTTP.
type Service interface {
	CreateOrder(ctx context.Context, in models.OrderCreateInput) (string, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error)
	GetTrackingInfo(ctx context.Context, trackingID string) (*models.TrackingInfo, error)
	Advance(ctx context.Context, trackingID string, details models.StatusUpdateDetails) (*models.Order, error)
	SetStatus(ctx context.Context, trackingID string, status models.Status, details models.StatusUpdateDetails) (*models.Order, error)
	SyncFromCarrier(ctx context.Context, trackingID string) (*models.Order, bool, error)
	ConfirmDelivery(ctx context.Context, trackingID, orderID string) (*models.Order, error)

	CreateZone(ctx context.Context, in models.ZoneCreateInput) (*models.Zone, error)
	ListZones(ctx context.Context) ([]*models.Zone, error)
	DeleteZone(ctx context.Context, id uint64) error
}

type RateLimiter interface {
	AllowClient(ctx context.Context, route, client string, limit int64, window time.Duration) (bool, error)
}
