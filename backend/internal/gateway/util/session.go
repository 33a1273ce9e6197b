package util

import (
	"context"

	"marksportal/backend/internal/shared"
)

type sessionKey struct{}

// Session is the authenticated caller of a gateway request
type Session struct {
	User  shared.User
	Token string
}

// HasRole reports whether the caller holds one of roles.
func (s Session) HasRole(roles ...string) bool {
	for _, r := range roles {
		if s.User.Role == r {
			return true
		}
	}
	return false
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session placed by the auth middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
