package trackinggrpc

import (
	"github.com/BearBump/TrackSim/internal/models"
)

type GetTrackingInfoRequest struct {
	TrackingID string `json:"tracking_id"`
}

type GetTrackingInfoResponse struct {
	Info *models.TrackingInfo `json:"info"`
}

type CreateOrderRequest struct {
	Order models.OrderCreateInput `json:"order"`
}

type CreateOrderResponse struct {
	TrackingID string `json:"tracking_id"`
}

type AdvanceOrderRequest struct {
	TrackingID  string  `json:"tracking_id"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

type SetStatusRequest struct {
	TrackingID  string        `json:"tracking_id"`
	Status      models.Status `json:"status"`
	Location    *string       `json:"location,omitempty"`
	Description *string       `json:"description,omitempty"`
}

type OrderResponse struct {
	Order *models.Order `json:"order"`
}
