package trackings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/BearBump/TrackSim/internal/cache"
	"github.com/BearBump/TrackSim/internal/integrations/carrier"
	"github.com/BearBump/TrackSim/internal/metrics"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/BearBump/TrackSim/internal/services/route"
	"github.com/pkg/errors"
)

type Repository interface {
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
	CreateOrder(ctx context.Context, o *models.Order) (uint64, error)
	GetOrderByTrackingID(ctx context.Context, trackingID string) (*models.Order, error)
	GetOrderForUpdate(ctx context.Context, trackingID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, upd models.StatusUpdate) error
	ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error)

	AppendEvent(ctx context.Context, e *models.TrackingEvent) error
	ListEventsForOrder(ctx context.Context, orderID uint64) ([]*models.TrackingEvent, error)
}

type ZoneRepository interface {
	CreateZone(ctx context.Context, z *models.Zone) (uint64, error)
	ListZones(ctx context.Context, activeOnly bool) ([]*models.Zone, error)
	DeleteZone(ctx context.Context, id uint64) error
}

// TxManager runs fn inside a transaction carried by ctx.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier hands a status change to the notification pipeline. It must not block.
type Notifier interface {
	StatusChanged(ctx context.Context, o *models.Order, from models.Status)
}

type Settings struct {
	IDPrefix   string
	IDFormat   string
	IDTemplate string

	DefaultDeliveryDaysMin int
	DefaultDeliveryDaysMax int

	CacheTTL time.Duration
}

// Validate reports settings that would make New fall back to defaults.
func (s Settings) Validate() error {
	_, err := NewIDGenerator(s.IDPrefix, s.IDFormat, s.IDTemplate, nil)
	return err
}

func DefaultSettings() Settings {
	return Settings{
		IDPrefix:               "TRK",
		IDFormat:               IDFormatAlphanumeric,
		DefaultDeliveryDaysMin: 3,
		DefaultDeliveryDaysMax: 7,
		CacheTTL:               10 * time.Minute,
	}
}

type Service struct {
	repo    Repository
	zones   ZoneRepository
	tx      TxManager
	cache   cache.BytesCache
	carrier carrier.Client
	notify  Notifier

	settings Settings
	ids      *IDGenerator
	now      func() time.Time
}

func New(repo Repository, zones ZoneRepository, tx TxManager, c cache.BytesCache, settings Settings) *Service {
	def := DefaultSettings()
	if settings.DefaultDeliveryDaysMin <= 0 {
		settings.DefaultDeliveryDaysMin = def.DefaultDeliveryDaysMin
	}
	if settings.DefaultDeliveryDaysMax < settings.DefaultDeliveryDaysMin {
		settings.DefaultDeliveryDaysMax = max(def.DefaultDeliveryDaysMax, settings.DefaultDeliveryDaysMin)
	}
	if tx == nil {
		tx = noTx{}
	}
	s := &Service{
		repo:     repo,
		zones:    zones,
		tx:       tx,
		cache:    c,
		settings: settings,
		now:      time.Now,
	}
	ids, err := NewIDGenerator(settings.IDPrefix, settings.IDFormat, settings.IDTemplate, nil)
	if err != nil {
		slog.Error("tracking id settings rejected, using defaults", "error", err.Error())
		ids, _ = NewIDGenerator(def.IDPrefix, def.IDFormat, "", nil)
	}
	s.ids = ids
	return s
}

func (s *Service) WithNotifier(n Notifier) *Service {
	s.notify = n
	return s
}

func (s *Service) WithCarrier(c carrier.Client) *Service {
	s.carrier = c
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.ids.now = now
	return s
}

func (s *Service) WithIDGenerator(g *IDGenerator) *Service {
	s.ids = g
	return s
}

const maxIDAttempts = 5

var trackingIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{4,64}$`)

// CreateOrder registers a shipment and backfills one event per status up to
// the initial one. It returns the tracking id.
func (s *Service) CreateOrder(ctx context.Context, in models.OrderCreateInput) (string, error) {
	in.TrackingID = strings.TrimSpace(in.TrackingID)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	if in.Status == "" {
		in.Status = models.StatusProcessing
	}
	if err := validateCreate(in); err != nil {
		return "", err
	}

	trackingID, err := s.resolveTrackingID(ctx, in.TrackingID)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	eta, err := s.estimateDelivery(ctx, in.DestinationAddress, in.Status, now)
	if err != nil {
		return "", err
	}

	o := &models.Order{
		TrackingID:         trackingID,
		OrderID:            in.OrderID,
		Status:             in.Status,
		Progress:           in.Status.Progress(),
		CurrentStep:        in.Status.Step(),
		Location:           in.Location,
		Carrier:            in.Carrier,
		OriginAddress:      in.OriginAddress,
		DestinationAddress: in.DestinationAddress,
		CustomerName:       in.CustomerName,
		CustomerEmail:      in.CustomerEmail,
		CustomerPhone:      in.CustomerPhone,
		Weight:             in.Weight,
		Dimensions:         in.Dimensions,
		PackageType:        in.PackageType,
		ServiceType:        in.ServiceType,
		Notes:              in.Notes,
		EstimatedDelivery:  eta,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if o.Location == "" {
		o.Location = route.LocationForStep(o.CurrentStep)
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		id, err := s.repo.CreateOrder(ctx, o)
		if err != nil {
			return err
		}
		o.ID = id
		for _, e := range backfillEvents(o, now) {
			if err := s.repo.AppendEvent(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.OrdersCreatedTotal.WithLabelValues(string(o.Status)).Inc()
	slog.Info("order created", "tracking_id", trackingID, "status", o.Status)
	return trackingID, nil
}

// backfillEvents returns one event per status from processing up to o.Status.
// Event i is stamped (initialStep - i) days before now.
func backfillEvents(o *models.Order, now time.Time) []*models.TrackingEvent {
	if o.Status.IsFailure() {
		return []*models.TrackingEvent{{
			OrderID:     o.ID,
			EventType:   models.EventTypeCreated,
			EventStatus: o.Status,
			Location:    o.Location,
			Description: o.Status.Description(),
			Timestamp:   now,
		}}
	}

	step := o.CurrentStep
	out := make([]*models.TrackingEvent, 0, step)
	for i := 1; i <= step; i++ {
		st := models.Sequence[i-1]
		loc := route.LocationForStep(i)
		if i == step {
			loc = o.Location
		}
		out = append(out, &models.TrackingEvent{
			OrderID:     o.ID,
			EventType:   models.EventTypeCreated,
			EventStatus: st,
			Location:    loc,
			Description: st.Description(),
			Timestamp:   now.Add(-time.Duration(step-i) * 24 * time.Hour),
		})
	}
	return out
}

func validateCreate(in models.OrderCreateInput) error {
	if in.CustomerEmail == "" {
		return errors.Wrap(models.ErrValidation, "customer_email is required")
	}
	if _, err := mail.ParseAddress(in.CustomerEmail); err != nil {
		return errors.Wrapf(models.ErrValidation, "customer_email %q is invalid", in.CustomerEmail)
	}
	if !in.Status.Valid() {
		return errors.Wrapf(models.ErrValidation, "unknown status %q", in.Status)
	}
	if in.TrackingID != "" && !trackingIDRe.MatchString(in.TrackingID) {
		return errors.Wrapf(models.ErrValidation, "tracking_id %q is malformed", in.TrackingID)
	}
	return nil
}

func (s *Service) resolveTrackingID(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		exists, err := s.repo.TrackingIDExists(ctx, requested)
		if err != nil {
			return "", err
		}
		if exists {
			return "", errors.Wrapf(models.ErrValidation, "tracking_id %s already exists", requested)
		}
		return requested, nil
	}

	for i := 0; i < maxIDAttempts; i++ {
		id := s.ids.Generate()
		exists, err := s.repo.TrackingIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		slog.Warn("tracking id collision", "tracking_id", id, "attempt", i+1)
	}
	return "", errors.Wrap(models.ErrPersistence, "could not generate a unique tracking id")
}

// Advance moves the order one step forward.
func (s *Service) Advance(ctx context.Context, trackingID string, details models.StatusUpdateDetails) (*models.Order, error) {
	return s.transition(ctx, trackingID, details, func(cur models.Status) (models.Status, error) {
		next, ok := cur.Next()
		if !ok {
			return "", errors.Wrapf(models.ErrInvalidTransition, "cannot advance order in status %s", cur)
		}
		return next, nil
	})
}

// SetStatus applies an out-of-band status. Forward jumps and failure states are
// allowed; backward moves and leaving a terminal state are not.
func (s *Service) SetStatus(ctx context.Context, trackingID string, status models.Status, details models.StatusUpdateDetails) (*models.Order, error) {
	if !status.Valid() {
		return nil, errors.Wrapf(models.ErrValidation, "unknown status %q", status)
	}
	return s.transition(ctx, trackingID, details, func(cur models.Status) (models.Status, error) {
		if !cur.CanMoveTo(status) {
			return "", errors.Wrapf(models.ErrInvalidTransition, "cannot move order from %s to %s", cur, status)
		}
		return status, nil
	})
}

func (s *Service) transition(
	ctx context.Context,
	trackingID string,
	details models.StatusUpdateDetails,
	pick func(cur models.Status) (models.Status, error),
) (*models.Order, error) {
	if trackingID == "" {
		return nil, errors.Wrap(models.ErrValidation, "tracking_id is required")
	}

	var (
		updated *models.Order
		from    models.Status
	)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetOrderForUpdate(ctx, trackingID)
		if err != nil {
			return err
		}
		to, err := pick(o.Status)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		eta, err := s.estimateDelivery(ctx, o.DestinationAddress, to, now)
		if err != nil {
			return err
		}

		loc := pointer.GetString(details.Location)
		if loc == "" {
			loc = o.Location
			if !to.IsFailure() {
				loc = route.LocationForStep(to.Step())
			}
		}
		desc := pointer.GetString(details.Description)
		if desc == "" {
			desc = to.Description()
		}
		evType := pointer.GetString(details.EventType)
		if evType == "" {
			evType = models.EventTypeStatusChange
		}

		err = s.repo.UpdateOrderStatus(ctx, models.StatusUpdate{
			OrderID:           o.ID,
			From:              o.Status,
			To:                to,
			Location:          &loc,
			EstimatedDelivery: eta,
			UpdatedAt:         now,
		})
		if err != nil {
			return err
		}
		err = s.repo.AppendEvent(ctx, &models.TrackingEvent{
			OrderID:     o.ID,
			EventType:   evType,
			EventStatus: to,
			Location:    loc,
			Description: desc,
			Timestamp:   now,
		})
		if err != nil {
			return err
		}

		from = o.Status
		o.Status = to
		o.Progress = to.Progress()
		o.CurrentStep = to.Step()
		o.Location = loc
		o.EstimatedDelivery = eta
		o.UpdatedAt = now
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(updated.Status)).Inc()
	s.invalidate(ctx, updated.TrackingID)
	if s.notify != nil {
		s.notify.StatusChanged(ctx, updated, from)
	}
	return updated, nil
}

// ConfirmDelivery is the public recipient confirmation. The stored order id
// must match before anything is written.
func (s *Service) ConfirmDelivery(ctx context.Context, trackingID, orderID string) (*models.Order, error) {
	trackingID = strings.TrimSpace(trackingID)
	orderID = strings.TrimSpace(orderID)
	if trackingID == "" || orderID == "" {
		return nil, errors.Wrap(models.ErrValidation, "tracking_id and order_id are required")
	}

	o, err := s.repo.GetOrderByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if o.OrderID == "" || o.OrderID != orderID {
		return nil, errors.Wrap(models.ErrValidation, "order_id does not match tracking_id")
	}
	if o.Status == models.StatusDelivered {
		return nil, errors.Wrap(models.ErrInvalidTransition, "order is already delivered")
	}

	return s.SetStatus(ctx, trackingID, models.StatusDelivered, models.StatusUpdateDetails{
		Description: pointer.ToString("Delivery confirmed by recipient"),
		EventType:   pointer.ToString(models.EventTypeDeliveryConfirmation),
	})
}

// SyncFromCarrier pulls the carrier status and applies it when it is ahead of
// ours. The bool reports whether the order changed.
func (s *Service) SyncFromCarrier(ctx context.Context, trackingID string) (*models.Order, bool, error) {
	if s.carrier == nil {
		return nil, false, errors.New("carrier client is not configured")
	}
	o, err := s.repo.GetOrderByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, false, err
	}

	res, err := s.carrier.GetTracking(ctx, o.Carrier, o.TrackingID)
	if err != nil {
		return nil, false, errors.Wrap(err, "carrier get tracking")
	}
	if !o.Status.CanMoveTo(res.Status) {
		return o, false, nil
	}

	details := models.StatusUpdateDetails{EventType: pointer.ToString(models.EventTypeCarrierSync)}
	if n := len(res.Checkpoints); n > 0 {
		last := res.Checkpoints[n-1]
		if last.Location != "" {
			details.Location = pointer.ToString(last.Location)
		}
		if last.Message != "" {
			details.Description = pointer.ToString(last.Message)
		}
	}

	updated, err := s.SetStatus(ctx, trackingID, res.Status, details)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

// GetTrackingInfo returns the order, its status metadata, events in
// chronological order and a route that is stable across calls.
func (s *Service) GetTrackingInfo(ctx context.Context, trackingID string) (*models.TrackingInfo, error) {
	if trackingID == "" {
		return nil, errors.Wrap(models.ErrValidation, "tracking_id is required")
	}

	if s.cacheEnabled() {
		b, ok, err := s.cache.Get(ctx, infoKey(trackingID))
		if err == nil && ok {
			var info models.TrackingInfo
			if json.Unmarshal(b, &info) == nil && info.Order != nil {
				return &info, nil
			}
		}
	}

	o, err := s.repo.GetOrderByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	info, err := s.buildInfo(ctx, o)
	if err != nil {
		return nil, err
	}
	s.storeInfo(ctx, info)
	return info, nil
}

func (s *Service) buildInfo(ctx context.Context, o *models.Order) (*models.TrackingInfo, error) {
	events, err := s.repo.ListEventsForOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.TrackingEvent{}
	}
	info, _ := o.Status.Info()
	return &models.TrackingInfo{
		Order:      o,
		StatusInfo: info,
		Events:     events,
		Route:      route.Seeded(o.TrackingID).BuildRoute(o.OriginAddress, o.DestinationAddress),
	}, nil
}

func (s *Service) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, errors.Wrapf(models.ErrValidation, "unknown status %q", f.Status)
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, errors.Wrap(models.ErrValidation, "created_from is after created_to")
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.ListOrders(ctx, f)
}

// invalidate drops the cached snapshot after a write. The next read rebuilds
// it from storage, so two writers finishing out of order cannot leave the
// older snapshot in place.
func (s *Service) invalidate(ctx context.Context, trackingID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Delete(ctx, infoKey(trackingID)); err != nil {
		slog.Warn("invalidate tracking cache", "tracking_id", trackingID, "error", err.Error())
	}
}

// ForgetTrackingInfo drops cached snapshots of orders removed by retention.
func (s *Service) ForgetTrackingInfo(ctx context.Context, trackingIDs []string) {
	for _, id := range trackingIDs {
		s.invalidate(ctx, id)
	}
}

func (s *Service) storeInfo(ctx context.Context, info *models.TrackingInfo) {
	if !s.cacheEnabled() {
		return
	}
	b, err := json.Marshal(info)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, infoKey(info.Order.TrackingID), b, s.settings.CacheTTL)
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.settings.CacheTTL > 0
}

func infoKey(trackingID string) string {
	return fmt.Sprintf("tracking:%s:info", trackingID)
}

type noTx struct{}

func (noTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
