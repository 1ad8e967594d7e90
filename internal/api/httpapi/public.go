package httpapi

import (
	"net/http"

	"github.com/BearBump/TrackSim/internal/metrics"
	"github.com/BearBump/TrackSim/internal/models"
	"github.com/go-chi/chi/v5"
)

type confirmDeliveryRequest struct {
	TrackingID string `json:"tracking_id"`
	OrderID    string `json:"order_id"`
}

type confirmDeliveryResponse struct {
	TrackingID string            `json:"tracking_id"`
	Status     models.Status     `json:"status"`
	StatusInfo models.StatusInfo `json:"status_info"`
}

func (a *API) track(w http.ResponseWriter, r *http.Request) {
	info, err := a.svc.GetTrackingInfo(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info.Public())
}

func (a *API) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	var req confirmDeliveryRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	o, err := a.svc.ConfirmDelivery(r.Context(), req.TrackingID, req.OrderID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	info, _ := o.Status.Info()
	writeJSON(w, http.StatusOK, confirmDeliveryResponse{TrackingID: o.TrackingID, Status: o.Status, StatusInfo: info})
}

// rateLimit caps requests per client address. Limiter errors let the request
// through.
func (a *API) rateLimit(route string, limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if a.opts.RateLimiter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := a.opts.RateLimiter.AllowClient(r.Context(), route, a.clientIP(r), limit, a.opts.ConfirmWindow)
			if err != nil {
				a.log.Warn("rate limiter unavailable", "route", route, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.RateLimitExceededTotal.WithLabelValues(route).Inc()
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
