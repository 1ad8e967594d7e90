package pgtracking

import (
	"context"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

var orderColumns = []string{
	"id", "tracking_id", "order_id",
	"status", "progress", "current_step",
	"location", "carrier", "origin_address", "destination_address",
	"customer_name", "customer_email", "customer_phone",
	"weight", "dimensions", "package_type", "service_type", "notes",
	"estimated_delivery", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var status string
	err := row.Scan(
		&o.ID, &o.TrackingID, &o.OrderID,
		&status, &o.Progress, &o.CurrentStep,
		&o.Location, &o.Carrier, &o.OriginAddress, &o.DestinationAddress,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Weight, &o.Dimensions, &o.PackageType, &o.ServiceType, &o.Notes,
		&o.EstimatedDelivery, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = models.Status(status)
	return &o, nil
}

func (s *Storage) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE tracking_id = $1)`, trackingID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check tracking id")
	}
	return exists, nil
}

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) (uint64, error) {
	var id uint64
	err := s.q(ctx).QueryRow(ctx, `
INSERT INTO orders (
  tracking_id, order_id, status, progress, current_step,
  location, carrier, origin_address, destination_address,
  customer_name, customer_email, customer_phone,
  weight, dimensions, package_type, service_type, notes,
  estimated_delivery, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
RETURNING id
`,
		o.TrackingID, o.OrderID, string(o.Status), o.Progress, o.CurrentStep,
		o.Location, o.Carrier, o.OriginAddress, o.DestinationAddress,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.Weight, o.Dimensions, o.PackageType, o.ServiceType, o.Notes,
		o.EstimatedDelivery, o.CreatedAt, o.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, writeErr(err, "insert order")
	}
	return id, nil
}

func (s *Storage) GetOrderByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	return s.getOrder(ctx, trackingID, "")
}

// GetOrderForUpdate locks the row until the surrounding transaction ends.
func (s *Storage) GetOrderForUpdate(ctx context.Context, trackingID string) (*models.Order, error) {
	return s.getOrder(ctx, trackingID, "FOR UPDATE")
}

func (s *Storage) getOrder(ctx context.Context, trackingID, suffix string) (*models.Order, error) {
	b := qb.Select(orderColumns...).From("orders").Where(sq.Eq{"tracking_id": trackingID})
	if suffix != "" {
		b = b.Suffix(suffix)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build select order")
	}

	o, err := scanOrder(s.q(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(models.ErrNotFound, "order %s", trackingID)
		}
		return nil, errors.Wrap(err, "select order")
	}
	return o, nil
}

// UpdateOrderStatus applies upd only if the stored status still equals upd.From.
func (s *Storage) UpdateOrderStatus(ctx context.Context, upd models.StatusUpdate) error {
	b := qb.Update("orders").
		Set("status", string(upd.To)).
		Set("progress", upd.To.Progress()).
		Set("current_step", upd.To.Step()).
		Set("estimated_delivery", upd.EstimatedDelivery).
		Set("updated_at", upd.UpdatedAt).
		Where(sq.Eq{"id": upd.OrderID, "status": string(upd.From)})
	if upd.Location != nil {
		b = b.Set("location", *upd.Location)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "build update order")
	}

	tag, err := s.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return writeErr(err, "update order status")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(models.ErrConflict, "order %d is no longer %s", upd.OrderID, upd.From)
	}
	return nil
}

func (s *Storage) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	b := qb.Select(orderColumns...).From("orders")
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Carrier != "" {
		b = b.Where(sq.Eq{"carrier": f.Carrier})
	}
	if f.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": *f.CreatedFrom})
	}
	if f.CreatedTo != nil {
		b = b.Where(sq.Lt{"created_at": *f.CreatedTo})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	return s.selectOrders(ctx, b.OrderBy("created_at DESC", "id DESC"))
}

// ListAdvanceCandidates returns non-terminal orders not touched since updatedBefore, oldest first.
func (s *Storage) ListAdvanceCandidates(ctx context.Context, updatedBefore time.Time, limit int) ([]*models.Order, error) {
	open := make([]string, 0, len(models.Sequence))
	for _, st := range models.NonTerminalStatuses() {
		open = append(open, string(st))
	}
	b := qb.Select(orderColumns...).From("orders").
		Where(sq.Eq{"status": open}).
		Where(sq.Lt{"updated_at": updatedBefore}).
		OrderBy("updated_at ASC", "id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return s.selectOrders(ctx, b)
}

func (s *Storage) selectOrders(ctx context.Context, b sq.SelectBuilder) ([]*models.Order, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build select orders")
	}
	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	out := make([]*models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// DeleteOrdersOlderThan removes orders created before the cutoff and returns
// their tracking ids. Events go with them.
func (s *Storage) DeleteOrdersOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.q(ctx).Query(ctx, `DELETE FROM orders WHERE created_at < $1 RETURNING tracking_id`, cutoff)
	if err != nil {
		return nil, writeErr(err, "delete old orders")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan deleted tracking id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, writeErr(err, "delete old orders")
	}
	return ids, nil
}
