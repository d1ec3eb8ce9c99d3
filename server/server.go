package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/timely-server/auth"
	"github.com/jrsteele09/timely-server/internal/config"
	"github.com/jrsteele09/timely-server/sessions"
)

type Server struct {
	env           string // Environment (e.g., "DEV", "PROD")
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	authenticator auth.Authenticator
	sessions      *sessions.Cache
	decoder       *Decoder
	metrics       *metrics
	limiter       *ipRateLimiter
}

type Option func(*Server)

// WithRegisterer registers the server's collectors with reg instead of a
// private registry. reg must also be a prometheus.Gatherer to be served on /metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Server) {
		s.metrics = newMetrics(reg)
	}
}

func New(cfg config.Config, authenticator auth.Authenticator, cache *sessions.Cache, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if authenticator == nil {
		return nil, errors.New("[Server New] authenticator is required")
	}
	if cache == nil {
		return nil, errors.New("[Server New] session cache is required")
	}

	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		authenticator: authenticator,
		sessions:      cache,
		decoder:       NewDecoder(cfg.GetCookieName()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newMetrics(prometheus.NewRegistry())
	}
	if err := s.metrics.registerSessionGauge(cache.Size); err != nil {
		return nil, fmt.Errorf("[Server New] register metrics: %w", err)
	}
	if cfg.GetEnableRateLimiting() {
		s.limiter = newIPRateLimiter(cfg.GetLoginRateLimit(), cfg.GetLoginRateBurst())
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
