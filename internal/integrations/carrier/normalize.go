package carrier

import (
	"strings"

	"github.com/BearBump/TrackSim/internal/models"
)

var rawStatuses = map[string]models.Status{
	"CREATED":          models.StatusProcessing,
	"REGISTERED":       models.StatusProcessing,
	"ACCEPTED":         models.StatusConfirmed,
	"READY_TO_SHIP":    models.StatusPacked,
	"PICKED_UP":        models.StatusShipped,
	"DISPATCHED":       models.StatusShipped,
	"IN_TRANSIT":       models.StatusInTransit,
	"ARRIVED":          models.StatusInTransit,
	"OUT_FOR_DELIVERY": models.StatusOutForDelivery,
	"DELIVERED":        models.StatusDelivered,
	"EXCEPTION":        models.StatusFailed,
	"DELIVERY_FAILED":  models.StatusFailed,
	"RETURNED":         models.StatusReturned,
	"RETURN_TO_SENDER": models.StatusReturned,
}

// NormalizeStatus maps a carrier status code onto our statuses. Unknown codes
// yield "".
func NormalizeStatus(raw string) models.Status {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if st, ok := rawStatuses[key]; ok {
		return st
	}
	if st, ok := models.ParseStatus(raw); ok {
		return st
	}
	return ""
}
