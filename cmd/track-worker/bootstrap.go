package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/BearBump/TrackSim/config"
	"github.com/BearBump/TrackSim/internal/broker/kafka"
	"github.com/BearBump/TrackSim/internal/cache/rediscache"
	"github.com/BearBump/TrackSim/internal/notify"
	"github.com/BearBump/TrackSim/internal/services/trackings"
	"github.com/BearBump/TrackSim/internal/storage/pgtracking"
	"github.com/pkg/errors"
)

const defaultConsumerGroup = "track-worker-mailer"

// buildWorkerDeps opens storage, cache and broker connections. The returned
// cleanup closes them in reverse order.
func buildWorkerDeps(ctx context.Context, cfg *config.Config, log *slog.Logger) (workerDeps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	st, err := pgtracking.New(ctx, cfg.Database.DSN(), pgtracking.Options{
		MaxConns:    cfg.Database.MaxConns,
		PingTimeout: 60 * time.Second,
	}, log)
	if err != nil {
		return workerDeps{}, cleanup, errors.Wrap(err, "open storage")
	}
	closers = append(closers, st.Close)

	settings := trackings.DefaultSettings()
	if cfg.API.CacheTTLSeconds > 0 {
		settings.CacheTTL = time.Duration(cfg.API.CacheTTLSeconds) * time.Second
	}
	if cfg.Tracking.DefaultDeliveryDaysMin > 0 {
		settings.DefaultDeliveryDaysMin = cfg.Tracking.DefaultDeliveryDaysMin
	}
	if cfg.Tracking.DefaultDeliveryDaysMax > 0 {
		settings.DefaultDeliveryDaysMax = cfg.Tracking.DefaultDeliveryDaysMax
	}

	var svc *trackings.Service
	if addr := cfg.Redis.Addr(); addr != "" {
		rc := rediscache.NewClient(rediscache.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		closers = append(closers, func() { _ = rc.Close() })
		svc = trackings.New(st, st, st.TxManager(), rediscache.New(rc), settings)
	} else {
		svc = trackings.New(st, st, st.TxManager(), nil, settings)
	}

	deps := workerDeps{
		candidates:  st,
		retention:   st,
		evictor:     svc,
		advancer:    svc,
		ready:       st.Ping,
		swaggerPath: os.Getenv("swaggerPath"),
	}

	brokers := cfg.Kafka.BrokerList()
	if len(brokers) == 0 || !cfg.Notifications.Enabled {
		return deps, cleanup, nil
	}

	ns := notify.Settings{
		Enabled:   true,
		Topic:     cfg.Kafka.StatusChangedTopic,
		QueueSize: cfg.Notifications.QueueSize,
	}
	if ns.Statuses, err = notify.ParseStatuses(cfg.Notifications.Statuses); err != nil {
		return deps, cleanup, errors.Wrap(err, "notifications")
	}

	producer := kafka.NewProducer(brokers)
	closers = append(closers, func() { _ = producer.Close() })
	dispatcher := notify.NewDispatcher(producer, ns, log)
	svc.WithNotifier(dispatcher)
	deps.tasks = append(deps.tasks, dispatcher)
	deps.stats = func() map[string]any {
		return map[string]any{
			"notificationsPublished": dispatcher.Published(),
			"notificationsDropped":   dispatcher.Dropped(),
		}
	}

	topic := ns.Topic
	if topic == "" {
		topic = notify.DefaultTopic
	}
	group := cfg.Kafka.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroup
	}
	consumer := kafka.NewConsumer(brokers, topic, group)
	closers = append(closers, func() { _ = consumer.Close() })
	deps.consumer = consumer
	deps.handler = notify.NewHandler(notify.NewLogMailer(log), log).Handle

	return deps, cleanup, nil
}
