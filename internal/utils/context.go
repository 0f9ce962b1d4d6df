package utils

import (
	"context"
	"time"
)

type contextKey string

const (
	ContextVolunteerIDKey   contextKey = "volunteerID"
	ContextVolunteerNameKey contextKey = "volunteerName"
	ContextRoleKey          contextKey = "role"
)

// SessionData is what a session lookup hands to the middleware.
type SessionData struct {
	VolunteerID string
	Name        string
	Role        string
	ExpiresAt   time.Time
}

// WithSession stores the session's volunteer identity on ctx.
func WithSession(ctx context.Context, s SessionData) context.Context {
	ctx = context.WithValue(ctx, ContextVolunteerIDKey, s.VolunteerID)
	ctx = context.WithValue(ctx, ContextVolunteerNameKey, s.Name)
	return context.WithValue(ctx, ContextRoleKey, s.Role)
}

func GetVolunteerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextVolunteerIDKey).(string)
	return id, ok && id != ""
}

func GetVolunteerNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(ContextVolunteerNameKey).(string)
	return name
}

func GetRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(ContextRoleKey).(string)
	return role
}
