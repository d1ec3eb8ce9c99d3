package server

// Route path constants
const (
	// Session lifecycle
	RouteLogin   = "/login"
	RouteLogout  = "/logout"
	RouteSession = "/session"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

const (
	contentTypeJSON = "application/json"
	headerRequestID = "X-Request-ID"
)
