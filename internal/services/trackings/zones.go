package trackings

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/pkg/errors"
)

func (s *Service) CreateZone(ctx context.Context, in models.ZoneCreateInput) (*models.Zone, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.Wrap(models.ErrValidation, "zone name is required")
	}
	if in.DeliveryDaysMin < 0 {
		return nil, errors.Wrap(models.ErrValidation, "delivery_days_min must not be negative")
	}
	if in.DeliveryDaysMin > in.DeliveryDaysMax {
		return nil, errors.Wrapf(models.ErrValidation,
			"delivery_days_min %d is greater than delivery_days_max %d", in.DeliveryDaysMin, in.DeliveryDaysMax)
	}
	if in.Cost.IsNegative() {
		return nil, errors.Wrap(models.ErrValidation, "cost must not be negative")
	}

	z := &models.Zone{
		Name:            in.Name,
		Countries:       cleanList(in.Countries),
		States:          cleanList(in.States),
		Cities:          cleanList(in.Cities),
		PostalCodes:     cleanList(in.PostalCodes),
		DeliveryDaysMin: in.DeliveryDaysMin,
		DeliveryDaysMax: in.DeliveryDaysMax,
		Cost:            in.Cost,
		Active:          true,
		CreatedAt:       s.now().UTC(),
	}
	id, err := s.zones.CreateZone(ctx, z)
	if err != nil {
		return nil, err
	}
	z.ID = id
	return z, nil
}

func (s *Service) ListZones(ctx context.Context) ([]*models.Zone, error) {
	return s.zones.ListZones(ctx, false)
}

func (s *Service) DeleteZone(ctx context.Context, id uint64) error {
	if id == 0 {
		return errors.Wrap(models.ErrValidation, "zone id is required")
	}
	return s.zones.DeleteZone(ctx, id)
}

// MatchZone returns the first active zone matching the destination, or nil.
func (s *Service) MatchZone(ctx context.Context, destination string) (*models.Zone, error) {
	if s.zones == nil || strings.TrimSpace(destination) == "" {
		return nil, nil
	}
	zones, err := s.zones.ListZones(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, z := range zones {
		if z.Matches(destination) {
			return z, nil
		}
	}
	return nil, nil
}

// estimateDelivery is today + max(1, maxDays - remainingSteps). Delivered
// orders are due today and failed ones have no estimate.
func (s *Service) estimateDelivery(ctx context.Context, destination string, st models.Status, now time.Time) (*time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case st.IsFailure():
		return nil, nil
	case st == models.StatusDelivered:
		return &today, nil
	}

	maxDays := s.settings.DefaultDeliveryDaysMax
	z, err := s.MatchZone(ctx, destination)
	if err != nil {
		return nil, errors.Wrap(err, "match zone")
	}
	if z != nil {
		maxDays = z.DeliveryDaysMax
	}

	days := max(1, maxDays-st.StepsRemaining())
	eta := today.AddDate(0, 0, days)
	return &eta, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
