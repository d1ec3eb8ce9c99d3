package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client address.
type ipRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

func newIPRateLimiter(perMinute, burst int) *ipRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > limiterIdleTTL {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastPrune = now
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// RateLimitMiddleware limits login attempts per client address when
// security.rate_limit.enabled is set. Excess attempts get 429.
func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next(w, r)
			return
		}

		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.metrics.loginAttempt(outcomeRateLimited)
			log.Warn().Str("client_ip", ip).Msg("login rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
