package canvass

import (
	"context"
	"errors"
	"net/http"

	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/EmpoweredVote/canvass/internal/utils"
	"github.com/go-chi/chi/v5"
)

type handler struct {
	manager *Manager
}

// session resolves the caller's canvass session, starting one on first use.
func (h *handler) session(r *http.Request) (*Session, bool) {
	id, ok := utils.GetVolunteerIDFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return h.manager.Start(id, utils.GetVolunteerNameFromContext(r.Context())), true
}

type sessionResponse struct {
	VolunteerID string   `json:"volunteer_id"`
	PrecinctID  string   `json:"precinct_id"`
	Selected    string   `json:"selected_address_id"`
	Coverage    Coverage `json:"coverage"`
}

func (h *handler) Session(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sessionResponse{
		VolunteerID: s.VolunteerID,
		PrecinctID:  s.Precinct(),
		Selected:    s.Selected(),
		Coverage:    s.Coverage(),
	})
}

func (h *handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetVolunteerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.manager.End(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) SelectPrecinct(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var in struct {
		PrecinctID string `json:"precinct_id"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	err := h.manager.SelectPrecinct(r.Context(), s, in.PrecinctID)
	switch {
	case errors.Is(err, ErrNoPrecinct):
		http.Error(w, "precinct_id is required", http.StatusBadRequest)
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		middleware.WriteUnavailable(w)
		return
	case err != nil:
		h.manager.log.WithError(err).Error("select precinct failed")
		http.Error(w, "Failed to load addresses", http.StatusBadGateway)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"precinct_id": s.Precinct(),
		"addresses":   s.Addresses(),
		"coverage":    s.Coverage(),
	})
}

func (h *handler) Addresses(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if s.Precinct() == "" {
		http.Error(w, "Select a precinct first", http.StatusConflict)
		return
	}
	utils.WriteJSON(w, http.StatusOK, s.Addresses())
}

func (h *handler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := s.Select(chi.URLParam(r, "addressID")); err != nil {
		writeVisitError(w, err)
		return
	}
	a, _ := s.Address(s.Selected())
	utils.WriteJSON(w, http.StatusOK, a)
}

func (h *handler) MarkVisit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var in struct {
		Outcome Outcome `json:"outcome"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	noteSaved := in.Outcome == NotHome
	err := h.manager.MarkVisit(r.Context(), s, chi.URLParam(r, "addressID"), in.Outcome)
	var noteErr *NoteError
	if errors.As(err, &noteErr) {
		h.manager.log.WithError(err).Warn("visit recorded without note")
		noteSaved = false
	} else if err != nil {
		writeVisitError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"outcome":    in.Outcome,
		"note_saved": noteSaved,
		"coverage":   s.Coverage(),
	})
}

func (h *handler) Coverage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	utils.WriteJSON(w, http.StatusOK, s.Coverage())
}

func writeVisitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidOutcome):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnknownAddress):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyVisited), errors.Is(err, ErrNoPrecinct):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Failed to record visit", http.StatusInternalServerError)
	}
}
