package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type createOrderResponse struct {
	TrackingID string `json:"tracking_id"`
}

type statusUpdateRequest struct {
	Status      models.Status `json:"status"`
	Location    *string       `json:"location,omitempty"`
	Description *string       `json:"description,omitempty"`
}

type syncResponse struct {
	Order   *models.Order `json:"order"`
	Changed bool          `json:"changed"`
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	var in models.OrderCreateInput
	if err := decodeBody(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := a.svc.CreateOrder(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+url.PathEscape(id))
	writeJSON(w, http.StatusCreated, createOrderResponse{TrackingID: id})
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	f, err := parseOrderFilter(r.URL.Query())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	orders, err := a.svc.ListOrders(r.Context(), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	info, err := a.svc.GetTrackingInfo(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) advanceOrder(w http.ResponseWriter, r *http.Request) {
	var details models.StatusUpdateDetails
	if err := decodeOptionalBody(r, &details); err != nil {
		a.writeError(w, r, err)
		return
	}
	o, err := a.svc.Advance(r.Context(), chi.URLParam(r, "trackingID"), details)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	o, err := a.svc.SetStatus(r.Context(), chi.URLParam(r, "trackingID"), req.Status, models.StatusUpdateDetails{
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) syncOrder(w http.ResponseWriter, r *http.Request) {
	o, changed, err := a.svc.SyncFromCarrier(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Order: o, Changed: changed})
}

func parseOrderFilter(q url.Values) (models.OrderFilter, error) {
	f := models.OrderFilter{
		Status:  models.Status(q.Get("status")),
		Carrier: q.Get("carrier"),
	}
	var err error
	if f.CreatedFrom, err = parseTimeParam(q, "created_from"); err != nil {
		return f, err
	}
	if f.CreatedTo, err = parseTimeParam(q, "created_to"); err != nil {
		return f, err
	}
	if f.Limit, err = parseIntParam(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = parseIntParam(q, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates (UTC midnight).
func parseTimeParam(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.Wrapf(models.ErrValidation, "%s: invalid time %q", name, raw)
}

func parseIntParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.Wrapf(models.ErrValidation, "%s: invalid value %q", name, raw)
	}
	return v, nil
}
