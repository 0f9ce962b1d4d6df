package notes

import (
	"net/http"

	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(repo *Repository, sessions middleware.SessionFetcher, quickTags []string) http.Handler {
	r := chi.NewRouter()
	h := &handler{repo: repo, quickTags: quickTags}

	r.Get("/tags", h.QuickTags)
	r.Get("/tags/counts", h.TagCounts)
	r.Get("/stats", h.Stats)
	r.Get("/address/{addressID}", h.ListByAddress)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessions))
		r.Post("/", h.Create)
	})
	return r
}
