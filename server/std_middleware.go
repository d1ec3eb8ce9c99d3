package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// APIMiddleware is the standard chain for JSON routes, followed by mw.
func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
	}
	return append(chainedMiddleWare, mw...)
}

// statusRecorder captures the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func newRequestID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// LoggingMiddleware assigns a request id, echoes it in X-Request-ID and logs
// the completed request with its latency.
func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(headerRequestID)
		if _, err := ulid.ParseStrict(requestID); err != nil {
			requestID = newRequestID()
		}
		w.Header().Set(headerRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyRequestID, requestID))

		rec := &statusRecorder{ResponseWriter: w}
		next(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		s.metrics.observeRequest(route, rec.status, elapsed)

		if s.env == "DEV" {
			log.Debug().Msgf("[%-19s] %s %s%d%s %s", colourMethod(r.Method), r.URL.Path, statusColour(rec.status), rec.status, ResetColor, elapsed)
			return
		}
		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request")
	}
}

// RecoverMiddleware turns a handler panic into a 500 reply.
func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Str("request_id", RequestIDFromContext(r.Context())).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next(w, r)
	}
}

func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// No Origin header = same-origin request, no CORS headers needed
		if origin == "" {
			next(w, r)
			return
		}

		allowedOrigins := s.config.GetAllowedOrigins()
		isAllowed := allowedOrigins.IsAllowedOrigin(origin)

		if r.Method == http.MethodOptions {
			if isAllowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
				w.Header().Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}
			// Not allowed: no CORS headers, the browser blocks the real request.
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Session cookies need credentials, which rule out a wildcard origin.
		if isAllowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		next(w, r)
	}
}
