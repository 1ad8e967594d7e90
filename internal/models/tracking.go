package models

import (
	"time"
)

// Event types stored in tracking_events.event_type.
const (
	EventTypeCreated              = "created"
	EventTypeStatusChange         = "status_change"
	EventTypeDeliveryConfirmation = "delivery_confirmation"
	EventTypeCarrierSync          = "carrier_sync"
)

type Order struct {
	ID         uint64 `json:"id"`
	TrackingID string `json:"tracking_id"`
	OrderID    string `json:"order_id,omitempty"`

	Status      Status `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep int    `json:"current_step"`

	Location           string `json:"location,omitempty"`
	Carrier            string `json:"carrier,omitempty"`
	OriginAddress      string `json:"origin_address,omitempty"`
	DestinationAddress string `json:"destination_address,omitempty"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	Weight      string `json:"weight,omitempty"`
	Dimensions  string `json:"dimensions,omitempty"`
	PackageType string `json:"package_type,omitempty"`
	ServiceType string `json:"service_type,omitempty"`
	Notes       string `json:"notes,omitempty"`

	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Age is the time elapsed since the order was registered.
func (o *Order) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

type TrackingEvent struct {
	ID          uint64    `json:"id"`
	OrderID     uint64    `json:"order_id"`
	EventType   string    `json:"event_type"`
	EventStatus Status    `json:"event_status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type OrderCreateInput struct {
	TrackingID string `json:"tracking_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	Status     Status `json:"status,omitempty"`

	Location           string `json:"location,omitempty"`
	Carrier            string `json:"carrier,omitempty"`
	OriginAddress      string `json:"origin_address,omitempty"`
	DestinationAddress string `json:"destination_address,omitempty"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	Weight      string `json:"weight,omitempty"`
	Dimensions  string `json:"dimensions,omitempty"`
	PackageType string `json:"package_type,omitempty"`
	ServiceType string `json:"service_type,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// StatusUpdateDetails carries the optional fields merged into a status change.
// Nil fields fall back to defaults derived from the new status.
type StatusUpdateDetails struct {
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	EventType   *string `json:"event_type,omitempty"`
}

// StatusUpdate is the compare-and-swap write applied by the storage layer.
type StatusUpdate struct {
	OrderID           uint64
	From              Status
	To                Status
	Location          *string
	EstimatedDelivery *time.Time
	UpdatedAt         time.Time
}

type OrderFilter struct {
	Status      Status
	Carrier     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TrackingInfo is the full view of an order: the order itself, its status
// metadata, the event log and the synthesized route.
type TrackingInfo struct {
	Order      *Order           `json:"order"`
	StatusInfo StatusInfo       `json:"status_info"`
	Events     []*TrackingEvent `json:"events"`
	Route      []string         `json:"route"`
}

// PublicTracking is what an anonymous caller holding only a tracking id may
// see. Customer contact data, addresses, order id and notes stay out.
type PublicTracking struct {
	TrackingID        string        `json:"tracking_id"`
	Status            Status        `json:"status"`
	StatusInfo        StatusInfo    `json:"status_info"`
	Carrier           string        `json:"carrier,omitempty"`
	Location          string        `json:"location,omitempty"`
	EstimatedDelivery *time.Time    `json:"estimated_delivery,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
	Events            []PublicEvent `json:"events"`
	Route             []string      `json:"route"`
}

type PublicEvent struct {
	EventType   string    `json:"event_type"`
	Status      Status    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (i *TrackingInfo) Public() *PublicTracking {
	out := &PublicTracking{
		StatusInfo: i.StatusInfo,
		Events:     make([]PublicEvent, 0, len(i.Events)),
		Route:      i.Route,
	}
	if o := i.Order; o != nil {
		out.TrackingID = o.TrackingID
		out.Status = o.Status
		out.Carrier = o.Carrier
		out.Location = o.Location
		out.EstimatedDelivery = o.EstimatedDelivery
		out.UpdatedAt = o.UpdatedAt
	}
	for _, e := range i.Events {
		if e == nil {
			continue
		}
		out.Events = append(out.Events, PublicEvent{
			EventType:   e.EventType,
			Status:      e.EventStatus,
			Location:    e.Location,
			Description: e.Description,
			Timestamp:   e.Timestamp,
		})
	}
	if out.Route == nil {
		out.Route = []string{}
	}
	return out
}
