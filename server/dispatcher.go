package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/timely-server/internal/errors"
)

// decodeFailureMessage is the client-facing text for a decode failure. Only
// the DecodeError reason is exposed; wrapped parser errors stay in the log.
func decodeFailureMessage(err error) string {
	var decodeErr *DecodeError
	if apperrors.As(err, &decodeErr) {
		return decodeErr.Reason
	}
	return apperrors.ErrDecode.Error()
}

// Dispatch decodes the request and routes the single typed result to its
// handler. Decode failures never reach a handler.
func (s *Server) Dispatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.decoder.Decode(r)
		if err != nil {
			if r.URL.Path == RouteLogin {
				s.metrics.loginAttempt(outcomeDecodeError)
			}
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected by decoder")
			writeJSONError(w, http.StatusBadRequest, decodeFailureMessage(err))
			return
		}

		switch req := req.(type) {
		case LoginRequest:
			s.handleLogin(w, r, req)
		case LogoutRequest:
			s.handleLogout(w, r, req)
		case SessionRequest:
			s.handleSession(w, r, req)
		default:
			log.Error().Str("request", req.requestName()).Msg("no handler registered for request")
			writeJSONError(w, http.StatusInternalServerError, "no handler for request")
		}
	}
}
