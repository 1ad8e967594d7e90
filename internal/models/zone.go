package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Zone maps a set of destinations to a delivery-time range and a cost.
type Zone struct {
	ID              uint64          `json:"id"`
	Name            string          `json:"name"`
	Countries       []string        `json:"countries"`
	States          []string        `json:"states"`
	Cities          []string        `json:"cities"`
	PostalCodes     []string        `json:"postal_codes"`
	DeliveryDaysMin int             `json:"delivery_days_min"`
	DeliveryDaysMax int             `json:"delivery_days_max"`
	Cost            decimal.Decimal `json:"cost"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Matches reports whether any country, state, city or postal code of the zone
// occurs in the address (case-insensitive).
func (z *Zone) Matches(address string) bool {
	addr := strings.ToLower(address)
	if addr == "" {
		return false
	}
	for _, list := range [][]string{z.Countries, z.States, z.Cities, z.PostalCodes} {
		for _, item := range list {
			item = strings.ToLower(strings.TrimSpace(item))
			if item != "" && strings.Contains(addr, item) {
				return true
			}
		}
	}
	return false
}

type ZoneCreateInput struct {
	Name            string          `json:"name"`
	Countries       []string        `json:"countries"`
	States          []string        `json:"states"`
	Cities          []string        `json:"cities"`
	PostalCodes     []string        `json:"postal_codes"`
	DeliveryDaysMin int             `json:"delivery_days_min"`
	DeliveryDaysMax int             `json:"delivery_days_max"`
	Cost            decimal.Decimal `json:"cost"`
}
