package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksim_orders_created_total",
			Help: "Total number of registered orders by initial status",
		},
		[]string{"status"},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksim_status_transitions_total",
			Help: "Total number of applied status transitions by target status",
		},
		[]string{"status"},
	)

	SimulatorAdvancedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracksim_simulator_advanced_total",
			Help: "Orders advanced by the periodic simulator",
		},
	)

	SimulatorErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracksim_simulator_errors_total",
			Help: "Per-order failures during simulator ticks",
		},
	)

	SimulatorTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracksim_simulator_tick_duration_seconds",
			Help:    "Duration of a simulator tick",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	RetentionDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracksim_retention_deleted_orders_total",
			Help: "Orders removed by retention cleanup",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksim_notifications_total",
			Help: "Status notifications by outcome",
		},
		[]string{"outcome"},
	)

	RateLimitExceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksim_rate_limit_exceeded_total",
			Help: "Requests rejected due to rate limiting",
		},
		[]string{"route"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracksim_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracksim_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route", "code"},
	)
)
