package volunteers

import (
	"net/http"

	"github.com/EmpoweredVote/canvass/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// LogoutHook runs after a volunteer's session is deleted.
type LogoutHook func(volunteerID string)

// SetupRoutes mounts the account routes. Accounts registering or logging in
// with one of coordinatorEmails hold the coordinator role.
func SetupRoutes(onLogout LogoutHook, coordinatorEmails ...string) http.Handler {
	r := chi.NewRouter()
	h := &handler{onLogout: onLogout, coordinators: make(map[string]bool, len(coordinatorEmails))}
	for _, email := range coordinatorEmails {
		h.coordinators[normalizeEmail(email)] = true
	}

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(SessionInfo{}))
		r.Post("/logout", h.Logout)
		r.Get("/me", MeHandler)
		r.Patch("/me", UpdateMeHandler)
	})
	return r
}
