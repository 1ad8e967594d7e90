package pgtracking

import (
	"context"

	"github.com/BearBump/TrackSim/internal/models"
	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func (s *Storage) CreateZone(ctx context.Context, z *models.Zone) (uint64, error) {
	var id uint64
	err := s.q(ctx).QueryRow(ctx, `
INSERT INTO zones (
  name, countries, states, cities, postal_codes,
  delivery_days_min, delivery_days_max, cost, active, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9,$10)
RETURNING id
`,
		z.Name, nonNil(z.Countries), nonNil(z.States), nonNil(z.Cities), nonNil(z.PostalCodes),
		z.DeliveryDaysMin, z.DeliveryDaysMax, z.Cost.String(), z.Active, z.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, writeErr(err, "insert zone")
	}
	return id, nil
}

func (s *Storage) ListZones(ctx context.Context, activeOnly bool) ([]*models.Zone, error) {
	b := qb.Select(
		"id", "name", "countries", "states", "cities", "postal_codes",
		"delivery_days_min", "delivery_days_max", "cost::text", "active", "created_at",
	).From("zones").OrderBy("id")
	if activeOnly {
		b = b.Where(sq.Eq{"active": true})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build select zones")
	}

	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select zones")
	}
	defer rows.Close()

	out := make([]*models.Zone, 0)
	for rows.Next() {
		var z models.Zone
		var cost string
		if err := rows.Scan(
			&z.ID, &z.Name, &z.Countries, &z.States, &z.Cities, &z.PostalCodes,
			&z.DeliveryDaysMin, &z.DeliveryDaysMax, &cost, &z.Active, &z.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan zone")
		}
		if z.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, errors.Wrap(err, "parse zone cost")
		}
		out = append(out, &z)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) DeleteZone(ctx context.Context, id uint64) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return writeErr(err, "delete zone")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(models.ErrNotFound, "zone %d", id)
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
