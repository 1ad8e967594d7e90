package httpapi

import (
	"net/http"
	"strconv"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

func (a *API) createZone(w http.ResponseWriter, r *http.Request) {
	var in models.ZoneCreateInput
	if err := decodeBody(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	z, err := a.svc.CreateZone(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, z)
}

func (a *API) listZones(w http.ResponseWriter, r *http.Request) {
	zones, err := a.svc.ListZones(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if zones == nil {
		zones = []*models.Zone{}
	}
	writeJSON(w, http.StatusOK, zones)
}

func (a *API) deleteZone(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		a.writeError(w, r, errors.Wrapf(models.ErrValidation, "invalid zone id %q", raw))
		return
	}
	if err := a.svc.DeleteZone(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
