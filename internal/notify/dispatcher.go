package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/BearBump/TrackSim/internal/broker/messages"
	"github.com/BearBump/TrackSim/internal/metrics"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/BearBump/TrackSim/internal/retrier"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

const DefaultTopic = "tracking.status_changed"

type Settings struct {
	Enabled   bool
	Statuses  []models.Status // empty means every status
	Topic     string
	QueueSize int
	Retry     retrier.Config
}

func DefaultRetry() retrier.Config {
	return retrier.Config{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  30 * time.Second,
		Randomization:   0.5,
		Multiplier:      2,
	}
}

// Dispatcher queues status changes and publishes them in the background.
// A full queue drops the message instead of blocking the caller.
type Dispatcher struct {
	pub      Publisher
	topic    string
	enabled  bool
	statuses map[models.Status]struct{}
	retrier  *retrier.Retrier
	queue    chan messages.StatusChanged
	log      *slog.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

func NewDispatcher(pub Publisher, settings Settings, log *slog.Logger) *Dispatcher {
	if settings.QueueSize <= 0 {
		settings.QueueSize = 256
	}
	if settings.Topic == "" {
		settings.Topic = DefaultTopic
	}
	if settings.Retry.InitialInterval <= 0 {
		settings.Retry = DefaultRetry()
	}
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		pub:     pub,
		topic:   settings.Topic,
		enabled: settings.Enabled,
		retrier: retrier.New(settings.Retry),
		queue:   make(chan messages.StatusChanged, settings.QueueSize),
		log:     log.With("component", "notify_dispatcher"),
	}
	if len(settings.Statuses) > 0 {
		d.statuses = make(map[models.Status]struct{}, len(settings.Statuses))
		for _, st := range settings.Statuses {
			d.statuses[st] = struct{}{}
		}
	}
	return d
}

// ParseStatuses normalizes configured status names ("Out for delivery" and
// "out_for_delivery" are the same status).
func ParseStatuses(raw []string) ([]models.Status, error) {
	var out []models.Status
	for _, r := range raw {
		st, ok := models.ParseStatus(r)
		if !ok {
			return nil, errors.Errorf("unknown status %q", r)
		}
		out = append(out, st)
	}
	return out, nil
}

func (d *Dispatcher) wants(st models.Status) bool {
	if !d.enabled {
		return false
	}
	if d.statuses == nil {
		return true
	}
	_, ok := d.statuses[st]
	return ok
}

// StatusChanged enqueues a notification for o if its new status is enabled.
func (d *Dispatcher) StatusChanged(_ context.Context, o *models.Order, from models.Status) {
	if o == nil || !d.wants(o.Status) {
		return
	}
	msg := messages.StatusChanged{
		MessageID:         uuid.NewString(),
		TrackingID:        o.TrackingID,
		OrderID:           o.OrderID,
		FromStatus:        string(from),
		Status:            string(o.Status),
		StatusLabel:       o.Status.Label(),
		Progress:          o.Progress,
		Location:          o.Location,
		Description:       o.Status.Description(),
		CustomerName:      o.CustomerName,
		CustomerEmail:     o.CustomerEmail,
		EstimatedDelivery: o.EstimatedDelivery,
		ChangedAt:         o.UpdatedAt,
	}

	select {
	case d.queue <- msg:
	default:
		d.dropped.Add(1)
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn("notification queue is full, dropping", "tracking_id", o.TrackingID, "status", o.Status)
	}
}

// Run publishes queued messages until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.queue:
			if err := d.publish(ctx, msg); err != nil {
				d.dropped.Add(1)
				metrics.NotificationsTotal.WithLabelValues("failed").Inc()
				d.log.Error("publish notification", "tracking_id", msg.TrackingID, "status", msg.Status, "error", err.Error())
				continue
			}
			d.published.Add(1)
			metrics.NotificationsTotal.WithLabelValues("published").Inc()
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, msg messages.StatusChanged) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	key := []byte(msg.TrackingID)
	return d.retrier.ExecuteWithContext(ctx, func(ctx context.Context) error {
		return d.pub.Publish(ctx, d.topic, key, b)
	})
}

func (d *Dispatcher) Published() int64 { return d.published.Load() }

func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }
