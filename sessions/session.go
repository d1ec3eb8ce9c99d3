package sessions

import (
	"time"

	"github.com/jrsteele09/timely-server/auth"
)

// Session binds a token to the principal that logged in with it.
type Session struct {
	Token     string         `json:"-"`          // Cookie value, never echoed in response bodies
	Principal auth.Principal `json:"principal"`  // Authenticated identity
	CreatedAt time.Time      `json:"created_at"` // Login time
	ExpiresAt time.Time      `json:"expires_at"` // CreatedAt plus the max age in force at login
}

// IsExpired reports whether the session is no longer valid at now.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// MaxAge is the lifetime the session was issued with.
func (s Session) MaxAge() time.Duration {
	return s.ExpiresAt.Sub(s.CreatedAt)
}

func (s Session) clone() Session {
	s.Principal = s.Principal.Clone()
	return s
}
