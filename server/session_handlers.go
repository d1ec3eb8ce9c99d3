package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/timely-server/internal/logging"
)

type sessionResponse struct {
	Username       string    `json:"username"`
	Authorizations []string  `json:"authorizations"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// handleLogout invalidates the cookie's session and clears the cookie. It
// succeeds whether or not a session existed.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, req LogoutRequest) {
	if req.Token != "" && s.sessions.Invalidate(req.Token) {
		log.Info().Str("session", logging.TokenPrefix(req.Token)).Msg("logged out")
	}
	http.SetCookie(w, ExpiredCookie(s.config.GetCookieName(), s.config.GetServerAddress()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request, req SessionRequest) {
	session, ok := s.sessions.Lookup(req.Token)
	if req.Token == "" || !ok {
		writeJSONError(w, http.StatusUnauthorized, "no active session")
		return
	}

	authorizations := session.Principal.Authorizations
	if authorizations == nil {
		authorizations = []string{}
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Username:       session.Principal.Username,
		Authorizations: authorizations,
		CreatedAt:      session.CreatedAt,
		ExpiresAt:      session.ExpiresAt,
	})
}
