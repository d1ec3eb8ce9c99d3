package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/timely-server/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the caller's sessions.Session
	ContextKeySession ContextKey = "session"
	// ContextKeyRequestID stores the request id assigned by LoggingMiddleware
	ContextKeyRequestID ContextKey = "request_id"
)

// RequireSession rejects requests without a live session cookie with 401 and
// otherwise places the session in the request context.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.GetCookieName())
		if err != nil || cookie.Value == "" {
			writeJSONError(w, http.StatusUnauthorized, "login required")
			return
		}

		session, ok := s.sessions.Lookup(cookie.Value)
		if !ok {
			http.SetCookie(w, ExpiredCookie(s.config.GetCookieName(), s.config.GetServerAddress()))
			writeJSONError(w, http.StatusUnauthorized, "session expired")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, session)
		next(w, r.WithContext(ctx))
	}
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(sessions.Session)
	return session, ok
}

// RequestIDFromContext returns the id assigned by LoggingMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
