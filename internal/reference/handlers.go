package reference

import (
	"net/http"

	"github.com/EmpoweredVote/canvass/internal/utils"
	"github.com/go-chi/chi/v5"
)

type handler struct {
	tables *Tables
}

func (h handler) ListZips(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string][]string{"zips": h.tables.Zips()})
}

func (h handler) Census(w http.ResponseWriter, r *http.Request) {
	p, ok := h.tables.Census(chi.URLParam(r, "zip"))
	if !ok {
		http.Error(w, "No census data for postal code", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h handler) Elections(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.tables.Elections())
}

func (h handler) Election(w http.ResponseWriter, r *http.Request) {
	e, ok := h.tables.Election(chi.URLParam(r, "precinct"))
	if !ok {
		http.Error(w, "No election results for precinct", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, e)
}
