package trackings

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/TrackSim/internal/integrations/carrier"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/pkg/errors"
)

type memStore struct {
	mu     sync.Mutex
	nextID uint64

	orders map[string]*models.Order
	events []*models.TrackingEvent
	zones  []*models.Zone

	// forced collisions for generated ids
	collisions int
	appendErr  error
}

func newMemStore() *memStore {
	return &memStore{orders: map[string]*models.Order{}}
}

func (m *memStore) TrackingIDExists(_ context.Context, trackingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collisions > 0 {
		m.collisions--
		return true, nil
	}
	_, ok := m.orders[trackingID]
	return ok, nil
}

func (m *memStore) CreateOrder(_ context.Context, o *models.Order) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.TrackingID]; ok {
		return 0, errors.Wrap(models.ErrPersistence, "duplicate tracking id")
	}
	m.nextID++
	cp := *o
	cp.ID = m.nextID
	m.orders[o.TrackingID] = &cp
	return cp.ID, nil
}

func (m *memStore) GetOrderByTrackingID(_ context.Context, trackingID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[trackingID]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "order %s", trackingID)
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, trackingID string) (*models.Order, error) {
	return m.GetOrderByTrackingID(ctx, trackingID)
}

func (m *memStore) UpdateOrderStatus(_ context.Context, upd models.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID != upd.OrderID {
			continue
		}
		if o.Status != upd.From {
			return errors.Wrap(models.ErrConflict, "status changed concurrently")
		}
		o.Status = upd.To
		o.Progress = upd.To.Progress()
		o.CurrentStep = upd.To.Step()
		if upd.Location != nil {
			o.Location = *upd.Location
		}
		o.EstimatedDelivery = upd.EstimatedDelivery
		o.UpdatedAt = upd.UpdatedAt
		return nil
	}
	return errors.Wrapf(models.ErrNotFound, "order id %d", upd.OrderID)
}

func (m *memStore) ListOrders(_ context.Context, f models.OrderFilter) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Carrier != "" && o.Carrier != f.Carrier {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) AppendEvent(_ context.Context, e *models.TrackingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	cp := *e
	cp.ID = uint64(len(m.events) + 1)
	m.events = append(m.events, &cp)
	return nil
}

func (m *memStore) ListEventsForOrder(_ context.Context, orderID uint64) ([]*models.TrackingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TrackingEvent
	for _, e := range m.events {
		if e.OrderID == orderID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memStore) eventsFor(trackingID string) []*models.TrackingEvent {
	o, err := m.GetOrderByTrackingID(context.Background(), trackingID)
	if err != nil {
		return nil
	}
	ev, _ := m.ListEventsForOrder(context.Background(), o.ID)
	return ev
}

func (m *memStore) CreateZone(_ context.Context, z *models.Zone) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *z
	cp.ID = m.nextID
	m.zones = append(m.zones, &cp)
	return cp.ID, nil
}

func (m *memStore) ListZones(_ context.Context, activeOnly bool) ([]*models.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Zone
	for _, z := range m.zones {
		if activeOnly && !z.Active {
			continue
		}
		cp := *z
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) DeleteZone(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, z := range m.zones {
		if z.ID == id {
			m.zones = append(m.zones[:i], m.zones[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(models.ErrNotFound, "zone %d", id)
}

type fixedRand struct{ v int }

func (r fixedRand) Intn(n int) int { return r.v % n }

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) StatusChanged(_ context.Context, o *models.Order, from models.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, string(from)+"->"+string(o.Status))
}

type fakeCarrier struct {
	res carrier.TrackingResult
	err error
}

func (c fakeCarrier) GetTracking(_ context.Context, carrierCode, trackNumber string) (carrier.TrackingResult, error) {
	if strings.TrimSpace(trackNumber) == "" {
		return carrier.TrackingResult{}, errors.New("empty track number")
	}
	return c.res, c.err
}

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestService(store *memStore) *Service {
	return New(store, store, nil, nil, DefaultSettings()).
		WithClock(func() time.Time { return testNow })
}
