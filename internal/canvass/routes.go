package canvass

import (
	"net/http"

	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(m *Manager, sessions middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(sessions))
	r.Mount("/", newRouter(&handler{manager: m}))
	return r
}

func newRouter(h *handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/session", h.Session)
	r.Delete("/session", h.EndSession)
	r.Post("/precinct", h.SelectPrecinct)
	r.Get("/addresses", h.Addresses)
	r.Post("/addresses/{addressID}/select", h.SelectAddress)
	r.Post("/addresses/{addressID}/visit", h.MarkVisit)
	r.Get("/coverage", h.Coverage)
	return r
}
