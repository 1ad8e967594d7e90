package messages

import (
	"time"
)

// StatusChanged is published whenever an order moves to a status that has
// notifications enabled.
type StatusChanged struct {
	MessageID  string `json:"message_id"`
	TrackingID string `json:"tracking_id"`
	OrderID    string `json:"order_id,omitempty"`

	FromStatus  string `json:"from_status,omitempty"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	Progress    int    `json:"progress"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email"`

	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ChangedAt         time.Time  `json:"changed_at"`
}
