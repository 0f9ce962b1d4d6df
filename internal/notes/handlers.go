package notes

import (
	"context"
	"errors"
	"net/http"

	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/EmpoweredVote/canvass/internal/utils"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "notes")

type handler struct {
	repo      *Repository
	quickTags []string
}

type createRequest struct {
	AddressID  string   `json:"address_id"`
	PrecinctID string   `json:"precinct_id"`
	NoteText   string   `json:"note_text"`
	Tags       []string `json:"tags"`
}

func (h *handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	volunteerID, _ := utils.GetVolunteerIDFromContext(r.Context())
	note := InteractionNote{
		AddressID:     in.AddressID,
		PrecinctID:    in.PrecinctID,
		VolunteerID:   volunteerID,
		VolunteerName: utils.GetVolunteerNameFromContext(r.Context()),
		NoteText:      in.NoteText,
		Tags:          in.Tags,
	}
	err := h.repo.Create(r.Context(), &note)
	switch {
	case errors.Is(err, ErrEmptyNote), errors.Is(err, ErrMissingAddress):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		middleware.WriteUnavailable(w)
		return
	case err != nil:
		logger.WithError(err).Error("create failed")
		http.Error(w, "Failed to save note", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, note)
}

func (h *handler) ListByAddress(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListByAddress(r.Context(), chi.URLParam(r, "addressID"))
	if err != nil {
		logger.WithError(err).Error("list failed")
		http.Error(w, "Failed to load notes", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []InteractionNote{}
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) QuickTags(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string][]string{"tags": h.quickTags})
}

func (h *handler) TagCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.TagCounts(r.Context(), r.URL.Query().Get("precinct"))
	if err != nil {
		logger.WithError(err).Error("tag counts failed")
		http.Error(w, "Failed to count tags", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, counts)
}

// Stats is the per-precinct summary shown on the dashboard's stats tab.
type Stats struct {
	PrecinctID         string     `json:"precinct_id"`
	ContactedAddresses int64      `json:"contacted_addresses"`
	Tags               []TagCount `json:"tags"`
}

func (h *handler) Stats(w http.ResponseWriter, r *http.Request) {
	precinctID := r.URL.Query().Get("precinct")
	if precinctID == "" {
		http.Error(w, "precinct is required", http.StatusBadRequest)
		return
	}
	contacted, err := h.repo.ContactedAddresses(r.Context(), precinctID)
	if err != nil {
		logger.WithError(err).Error("contacted count failed")
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	tags, err := h.repo.TagCounts(r.Context(), precinctID)
	if err != nil {
		logger.WithError(err).Error("tag counts failed")
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, Stats{PrecinctID: precinctID, ContactedAddresses: contacted, Tags: tags})
}
