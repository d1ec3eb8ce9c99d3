package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/timely-server/auth"
	apperrors "github.com/jrsteele09/timely-server/internal/errors"
	"github.com/jrsteele09/timely-server/internal/logging"
)

type loginResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin authenticates the credentials and, on success, issues a session
// cookie and redirects to the UI. Every outcome is terminal.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, req LoginRequest) {
	ctx := r.Context()

	principal, err := s.authenticator.Authenticate(ctx, req.Username, req.Password)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// Client went away before a session existed. Nothing to clean up.
		s.metrics.loginAttempt(outcomeAborted)
		log.Debug().Err(ctxErr).Str("username", req.Username).Msg("login aborted")
		return
	}

	switch {
	case err == nil:
	case apperrors.Is(err, auth.ErrInvalidCredentials):
		s.metrics.loginAttempt(outcomeRejected)
		log.Info().Str("username", req.Username).Msg("login rejected")
		writeJSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	default:
		s.metrics.loginAttempt(outcomeUnavailable)
		log.Err(err).Str("username", req.Username).Msg("credential backend unavailable")
		writeJSONError(w, http.StatusServiceUnavailable, "credential backend unavailable")
		return
	}

	session, err := s.sessions.Create(principal)
	if err != nil {
		log.Err(err).Str("username", principal.Username).Msg("failed to create session")
		writeJSONError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.metrics.loginAttempt(outcomeSuccess)
	log.Info().
		Str("username", principal.Username).
		Str("session", logging.TokenPrefix(session.Token)).
		Time("expires_at", session.ExpiresAt).
		Msg("login succeeded")

	http.SetCookie(w, BuildCookie(s.config.GetCookieName(), session.Token, s.config.GetServerAddress(), session.MaxAge()))
	w.Header().Set("Location", s.config.GetUIAddress())
	writeJSON(w, http.StatusTemporaryRedirect, loginResponse{
		Username:  principal.Username,
		ExpiresAt: session.ExpiresAt,
	})
}
