package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	dispatch := s.Dispatch()

	// Session lifecycle. Every route decodes into a typed request and is
	// routed by the dispatcher.
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(dispatch, s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(dispatch, s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(dispatch, s.APIMiddleware()...))
	for _, route := range []string{RouteLogin, RouteLogout, RouteSession} {
		s.RegisterRouteHandler("OPTIONS "+route, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
	}

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.metrics.gatherer, promhttp.HandlerOpts{}))
}

// RegisterQueryHandler mounts a downstream handler that requires a logged in
// session. The session is available through SessionFromContext.
func (s *Server) RegisterQueryHandler(pattern string, handler http.HandlerFunc) {
	s.RegisterRouteHandler(pattern, ChainMiddleware(handler, s.APIMiddleware(s.RequireSession)...))
}

// PreflightHandler answers CORS preflight requests. The CORS middleware has
// already written the headers.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": s.sessions.Size(),
		})
	}
}
