// Package httpapi is the JSON HTTP surface of track-api.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"time"

	"github.com/BearBump/TrackSim/internal/api/adminauth"
	"github.com/BearBump/TrackSim/internal/metrics"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	SwaggerPath string

	// ConfirmLimit requests per ConfirmWindow per client on the public
	// confirmation endpoint. Zero or a nil limiter disables limiting.
	RateLimiter   RateLimiter
	ConfirmLimit  int64
	ConfirmWindow time.Duration

	// AdminToken is the bearer token required on /orders and /zones. Empty
	// rejects every admin request.
	AdminToken string

	// TrustedProxies may set X-Forwarded-For / X-Real-IP. Requests from any
	// other peer are identified by their socket address.
	TrustedProxies []netip.Prefix

	// Ready reports dependency health for /healthz. Nil means always ready.
	Ready func(r *http.Request) error
}

type API struct {
	svc  Service
	log  *slog.Logger
	opts Options
}

func New(svc Service, log *slog.Logger, opts Options) *API {
	if log == nil {
		log = slog.Default()
	}
	if opts.ConfirmWindow <= 0 {
		opts.ConfirmWindow = time.Minute
	}
	return &API{svc: svc, log: log.With("component", "http_api"), opts: opts}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware(a.log))

	r.Get("/healthz", a.healthz)
	r.Handle("/metrics", promhttp.Handler())

	if a.opts.SwaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, a.opts.SwaggerPath)
		})
		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(a.opts.SwaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Use(a.requireAdmin)
			r.Post("/", a.createOrder)
			r.Get("/", a.listOrders)
			r.Get("/{trackingID}", a.getOrder)
			r.Post("/{trackingID}/advance", a.advanceOrder)
			r.Put("/{trackingID}/status", a.setStatus)
			r.Post("/{trackingID}/sync", a.syncOrder)
		})

		r.Get("/track/{trackingID}", a.track)
		r.With(a.rateLimit("confirm-delivery", a.opts.ConfirmLimit)).
			Post("/confirm-delivery", a.confirmDelivery)

		r.Route("/zones", func(r chi.Router) {
			r.Use(a.requireAdmin)
			r.Post("/", a.createZone)
			r.Get("/", a.listZones)
			r.Delete("/{id}", a.deleteZone)
		})
	})
	return r
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !adminauth.Check(r.Header.Get("Authorization"), a.opts.AdminToken) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="tracksim"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "admin credentials required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.opts.Ready != nil {
		if err := a.opts.Ready(r); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(code)
	}
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(models.ErrValidation, "invalid JSON body: %v", err)
	}
	return nil
}

// decodeOptionalBody accepts an empty body and leaves v untouched.
func decodeOptionalBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(models.ErrValidation, "invalid JSON body: %v", err)
	}
	return nil
}
