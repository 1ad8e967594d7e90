package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/TrackSim/config"
	"github.com/BearBump/TrackSim/internal/api/httpapi"
	"github.com/BearBump/TrackSim/internal/broker/kafka"
	"github.com/BearBump/TrackSim/internal/cache/rediscache"
	"github.com/BearBump/TrackSim/internal/integrations/carrier"
	"github.com/BearBump/TrackSim/internal/integrations/carrier/emulatorv1"
	"github.com/BearBump/TrackSim/internal/integrations/carrier/fake"
	"github.com/BearBump/TrackSim/internal/logger"
	"github.com/BearBump/TrackSim/internal/notify"
	"github.com/BearBump/TrackSim/internal/services/trackings"
	"github.com/BearBump/TrackSim/internal/storage/pgtracking"
	"github.com/pkg/errors"
)

type trackAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    trackAPIOpts
	svc     *trackings.Service
	log     *slog.Logger
	tasks   []backgroundTask
	closers []func()
}

func mustBootstrapTrackAPI() *trackAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("failed to parse config: %v", err))
	}

	log, logCloser := logger.New(cfg.Log, "track-api")
	slog.SetDefault(log)

	app := &trackAPIApp{log: log}
	app.closers = append(app.closers, func() { _ = logCloser.Close() })
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st, err := pgtracking.New(app.ctx, cfg.Database.DSN(), pgtracking.Options{
		MaxConns:    cfg.Database.MaxConns,
		PingTimeout: 60 * time.Second,
	}, log)
	if err != nil {
		panic(fmt.Sprintf("postgres is not ready: %v", err))
	}
	app.closers = append(app.closers, st.Close)

	rc := rediscache.NewClient(rediscache.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	app.closers = append(app.closers, func() { _ = rc.Close() })

	settings := trackingSettings(cfg)
	if err := settings.Validate(); err != nil {
		panic(fmt.Sprintf("tracking settings: %v", err))
	}
	app.svc = trackings.New(st, st, st.TxManager(), rediscache.New(rc), settings)
	if c := newCarrierClient(cfg.Carrier); c != nil {
		app.svc.WithCarrier(c)
	}

	ns, err := notifySettings(cfg)
	if err != nil {
		panic(err)
	}
	if brokers := cfg.Kafka.BrokerList(); ns.Enabled && len(brokers) > 0 {
		producer := kafka.NewProducer(brokers)
		app.closers = append(app.closers, func() { _ = producer.Close() })
		d := notify.NewDispatcher(producer, ns, log)
		app.svc.WithNotifier(d)
		app.tasks = append(app.tasks, d)
	}

	grpcAddr := cfg.API.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = ":50051"
	}
	httpAddr := cfg.API.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	confirmLimit := int64(cfg.API.ConfirmRateLimitPerMinute)
	if confirmLimit <= 0 {
		confirmLimit = 10
	}
	proxies, err := httpapi.ParseTrustedProxies(cfg.API.TrustedProxies)
	if err != nil {
		panic(fmt.Sprintf("api.trusted_proxies: %v", err))
	}
	if cfg.API.AdminToken == "" {
		log.Warn("api.admin_token is empty, admin routes and gRPC service will reject every call")
	}

	app.opts = trackAPIOpts{
		grpcAddr: grpcAddr,
		httpAddr: httpAddr,
		http: httpapi.Options{
			SwaggerPath:    os.Getenv("swaggerPath"),
			RateLimiter:    rediscache.NewRateLimiter(rc),
			ConfirmLimit:   confirmLimit,
			ConfirmWindow:  time.Minute,
			AdminToken:     cfg.API.AdminToken,
			TrustedProxies: proxies,
			Ready: func(r *http.Request) error {
				return st.Ping(r.Context())
			},
		},
	}
	return app
}

func trackingSettings(cfg *config.Config) trackings.Settings {
	s := trackings.DefaultSettings()
	if cfg.Tracking.IDPrefix != "" {
		s.IDPrefix = cfg.Tracking.IDPrefix
	}
	if cfg.Tracking.IDFormat != "" {
		s.IDFormat = cfg.Tracking.IDFormat
	}
	s.IDTemplate = cfg.Tracking.IDTemplate
	if cfg.Tracking.DefaultDeliveryDaysMin > 0 {
		s.DefaultDeliveryDaysMin = cfg.Tracking.DefaultDeliveryDaysMin
	}
	if cfg.Tracking.DefaultDeliveryDaysMax > 0 {
		s.DefaultDeliveryDaysMax = cfg.Tracking.DefaultDeliveryDaysMax
	}
	if cfg.API.CacheTTLSeconds > 0 {
		s.CacheTTL = time.Duration(cfg.API.CacheTTLSeconds) * time.Second
	}
	return s
}

func notifySettings(cfg *config.Config) (notify.Settings, error) {
	s := notify.Settings{
		Enabled:   cfg.Notifications.Enabled,
		Topic:     cfg.Kafka.StatusChangedTopic,
		QueueSize: cfg.Notifications.QueueSize,
	}
	statuses, err := notify.ParseStatuses(cfg.Notifications.Statuses)
	if err != nil {
		return s, errors.Wrap(err, "notifications")
	}
	s.Statuses = statuses
	return s, nil
}

// newCarrierClient returns nil when carrier sync is not configured.
func newCarrierClient(cfg config.CarrierConfig) carrier.Client {
	switch cfg.Mode {
	case "emulator":
		return emulatorv1.New(cfg.BaseURL, cfg.APIKey, time.Duration(cfg.TimeoutSeconds)*time.Second)
	case "fake":
		return fake.New()
	default:
		return nil
	}
}

func (a *trackAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *trackAPIApp) Run() error {
	return runTrackAPI(a.ctx, a.opts, a.svc, a.log, a.tasks...)
}
