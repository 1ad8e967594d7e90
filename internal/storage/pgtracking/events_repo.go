package pgtracking

import (
	"context"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/pkg/errors"
)

// AppendEvent is the only write path for tracking_events.
func (s *Storage) AppendEvent(ctx context.Context, e *models.TrackingEvent) error {
	err := s.q(ctx).QueryRow(ctx, `
INSERT INTO tracking_events (order_id, event_type, event_status, location, description, event_time)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id
`, e.OrderID, e.EventType, string(e.EventStatus), e.Location, e.Description, e.Timestamp).Scan(&e.ID)
	if err != nil {
		return writeErr(err, "insert event")
	}
	return nil
}

func (s *Storage) ListEventsForOrder(ctx context.Context, orderID uint64) ([]*models.TrackingEvent, error) {
	rows, err := s.q(ctx).Query(ctx, `
SELECT id, order_id, event_type, event_status, location, description, event_time
FROM tracking_events
WHERE order_id = $1
ORDER BY event_time ASC, id ASC
`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	out := make([]*models.TrackingEvent, 0)
	for rows.Next() {
		var e models.TrackingEvent
		var status string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &status, &e.Location, &e.Description, &e.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		e.EventStatus = models.Status(status)
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
