package precincts

import (
	"net/http"
	"time"

	"github.com/EmpoweredVote/canvass/internal/geo"
	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/EmpoweredVote/canvass/internal/recordstore"
	"github.com/EmpoweredVote/canvass/internal/volunteers"
	"github.com/go-chi/chi/v5"
)

// Options wires the collaborators the precinct routes depend on. Locator
// may be nil, in which case boundary lookups report 404.
type Options struct {
	Store    *recordstore.Store
	Locator  geo.Locator
	Sessions middleware.SessionFetcher
	Limiter  *middleware.RateLimiter
	Timeout  time.Duration
}

func SetupRoutes(opts Options) http.Handler {
	r := chi.NewRouter()
	h := &handler{store: opts.Store, locator: opts.Locator}

	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/boundary", h.Boundary)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(opts.Sessions))
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}
		r.Post("/", h.Add)
		r.Patch("/{id}", h.Update)
		r.With(middleware.RequireRole(volunteers.RoleCoordinator)).Delete("/{id}", h.Delete)
	})
	return r
}
