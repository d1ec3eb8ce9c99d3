package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "timely"

// Login outcomes recorded on timely_login_attempts_total.
const (
	outcomeSuccess     = "success"
	outcomeRejected    = "rejected"
	outcomeDecodeError = "decode_error"
	outcomeUnavailable = "backend_unavailable"
	outcomeAborted     = "aborted"
	outcomeRateLimited = "rate_limited"
)

type metrics struct {
	registerer      prometheus.Registerer
	gatherer        prometheus.Gatherer
	loginAttempts   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		registerer: reg,
		gatherer:   prometheus.DefaultGatherer,
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	reg.MustRegister(m.loginAttempts, m.requestDuration)
	return m
}

func (m *metrics) registerSessionGauge(size func() int) error {
	return m.registerer.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "sessions_active",
		Help:      "Sessions held by the session cache, including expired ones not yet swept.",
	}, func() float64 {
		return float64(size())
	}))
}

func (m *metrics) loginAttempt(outcome string) {
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *metrics) observeRequest(route string, status int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(route, statusLabel(status)).Observe(elapsed.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
