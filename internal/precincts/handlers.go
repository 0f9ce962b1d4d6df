package precincts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/EmpoweredVote/canvass/internal/geo"
	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/EmpoweredVote/canvass/internal/utils"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "precincts")

// Outcome names the result of a mutation in the response body.
type Outcome string

const (
	Created      Outcome = "created"
	Updated      Outcome = "updated"
	Deleted      Outcome = "deleted"
	DuplicateKey Outcome = "duplicate_key"
	NotFound     Outcome = "not_found"
	Invalid      Outcome = "invalid"
)

// Result is the body of every mutation response.
type Result struct {
	OK      bool               `json:"ok"`
	Outcome Outcome            `json:"outcome,omitempty"`
	Record  recordstore.Record `json:"record,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type handler struct {
	store   *recordstore.Store
	locator geo.Locator
}

// pathID reads the {id} segment. Ids are strings unless ?numeric=true asks
// for the JSON number with the same text.
func pathID(r *http.Request) (any, error) {
	raw := chi.URLParam(r, "id")
	if r.URL.Query().Get("numeric") != "true" {
		return raw, nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return nil, errors.New("id is not numeric")
	}
	return json.Number(raw), nil
}

func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.store.List(r.Context()))
}

func (h *handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec, ok := h.store.Get(r.Context(), id)
	if !ok {
		http.Error(w, "Precinct not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rec)
}

func (h *handler) Boundary(w http.ResponseWriter, r *http.Request) {
	if h.locator == nil {
		http.Error(w, "Boundaries unavailable", http.StatusNotFound)
		return
	}
	geom, ok, err := h.locator.Boundary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if r.Context().Err() != nil {
			middleware.WriteUnavailable(w)
			return
		}
		logger.WithError(err).Error("boundary lookup failed")
		http.Error(w, "Failed to load boundary", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Boundary not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(geom)
}

func (h *handler) Add(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	if err := utils.DecodeJSON(r, &in); err != nil || in == nil {
		writeResult(w, http.StatusBadRequest, Result{Outcome: Invalid, Error: "body must be a JSON object"})
		return
	}

	added, err := h.store.Add(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	id := in[recordstore.KeyField]
	if !added {
		writeResult(w, http.StatusConflict, Result{Outcome: DuplicateKey})
		return
	}
	rec, _ := h.store.Get(r.Context(), id)
	logger.WithFields(log.Fields{
		"precinct_id":  id,
		"volunteer_id": volunteer(r),
	}).Info("precinct created")
	writeResult(w, http.StatusCreated, Result{OK: true, Outcome: Created, Record: rec})
}

func (h *handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeResult(w, http.StatusBadRequest, Result{Outcome: Invalid, Error: err.Error()})
		return
	}
	var partial map[string]any
	if err := utils.DecodeJSON(r, &partial); err != nil || partial == nil {
		writeResult(w, http.StatusBadRequest, Result{Outcome: Invalid, Error: "body must be a JSON object"})
		return
	}

	updated, err := h.store.Update(r.Context(), id, partial)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !updated {
		writeResult(w, http.StatusNotFound, Result{Outcome: NotFound})
		return
	}
	rec, _ := h.store.Get(r.Context(), id)
	logger.WithFields(log.Fields{
		"precinct_id":  id,
		"volunteer_id": volunteer(r),
	}).Info("precinct updated")
	writeResult(w, http.StatusOK, Result{OK: true, Outcome: Updated, Record: rec})
}

func (h *handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeResult(w, http.StatusBadRequest, Result{Outcome: Invalid, Error: err.Error()})
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !deleted {
		writeResult(w, http.StatusNotFound, Result{Outcome: NotFound})
		return
	}
	logger.WithFields(log.Fields{
		"precinct_id":  id,
		"volunteer_id": volunteer(r),
	}).Info("precinct deleted")
	writeResult(w, http.StatusOK, Result{OK: true, Outcome: Deleted})
}

func volunteer(r *http.Request) string {
	id, _ := utils.GetVolunteerIDFromContext(r.Context())
	return id
}

func writeResult(w http.ResponseWriter, status int, res Result) {
	utils.WriteJSON(w, status, res)
}

func writeStoreError(w http.ResponseWriter, err error) {
	var perr *recordstore.PersistError
	switch {
	case errors.Is(err, recordstore.ErrCanceled):
		w.Header().Set("Retry-After", "1")
		writeResult(w, http.StatusServiceUnavailable, Result{Error: "request timed out, retry"})
	case errors.Is(err, recordstore.ErrMissingKey),
		errors.Is(err, recordstore.ErrKeyChange),
		errors.Is(err, recordstore.ErrInvalidRecord):
		writeResult(w, http.StatusBadRequest, Result{Outcome: Invalid, Error: err.Error()})
	case errors.As(err, &perr):
		logger.WithError(err).Error("precinct store write failed")
		writeResult(w, http.StatusInternalServerError, Result{Error: "failed to save precinct"})
	default:
		logger.WithError(err).Error("precinct store error")
		writeResult(w, http.StatusInternalServerError, Result{Error: "internal error"})
	}
}
