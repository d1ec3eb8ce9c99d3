// Package sessions holds the process-wide store of logged in sessions.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/timely-server/auth"
	apperrors "github.com/jrsteele09/timely-server/internal/errors"
)

const (
	// DefaultMaxAge is the session lifetime used until SetMaxAge is called.
	DefaultMaxAge = 24 * time.Hour
	// MinMaxAge is the shortest lifetime SetMaxAge accepts. Cookies carry
	// Max-Age in whole seconds.
	MinMaxAge = time.Second

	DefaultSweepInterval = time.Minute
	maxTokenAttempts     = 5
)

var ErrTokenCollision = apperrors.ErrTokenCollision

type Option func(*Cache)

// WithMaxAge sets the initial session lifetime. Values below MinMaxAge are ignored.
func WithMaxAge(d time.Duration) Option {
	return func(c *Cache) {
		if d >= MinMaxAge {
			c.maxAge.Store(int64(d))
		}
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func WithTokenGenerator(gen TokenGenerator) Option {
	return func(c *Cache) {
		c.newToken = gen
	}
}

func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.sweepInterval = d
		}
	}
}

// Cache maps session tokens to sessions. Expired sessions are never returned
// and are reclaimed on lookup or by the background sweeper.
type Cache struct {
	mu       sync.RWMutex
	sessions map[string]Session

	maxAge        atomic.Int64
	now           func() time.Time
	newToken      TokenGenerator
	sweepInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(opts ...Option) *Cache {
	c := &Cache{
		sessions:      make(map[string]Session),
		now:           time.Now,
		newToken:      NewToken,
		sweepInterval: DefaultSweepInterval,
		stopCh:        make(chan struct{}),
	}
	c.maxAge.Store(int64(DefaultMaxAge))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetMaxAge changes the lifetime of sessions created from now on. Sessions
// already issued keep their expiry.
func (c *Cache) SetMaxAge(d time.Duration) error {
	if d < MinMaxAge {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "[Cache.SetMaxAge] max age %s is below %s", d, MinMaxAge)
	}
	c.maxAge.Store(int64(d))
	return nil
}

// ResetMaxAge restores DefaultMaxAge.
func (c *Cache) ResetMaxAge() {
	c.maxAge.Store(int64(DefaultMaxAge))
}

func (c *Cache) MaxAge() time.Duration {
	return time.Duration(c.maxAge.Load())
}

// Create issues a new session for principal under a fresh token. An existing
// entry is never overwritten; a colliding token is regenerated.
func (c *Cache) Create(principal auth.Principal) (Session, error) {
	maxAge := c.MaxAge()

	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := c.newToken()
		if err != nil {
			return Session{}, fmt.Errorf("[Cache.Create] generate token: %w", err)
		}
		if _, exists := c.sessions[token]; exists {
			log.Warn().Int("attempt", attempt+1).Msg("session token collision, regenerating")
			continue
		}

		now := c.now()
		s := Session{
			Token:     token,
			Principal: principal.Clone(),
			CreatedAt: now,
			ExpiresAt: now.Add(maxAge),
		}
		c.sessions[token] = s
		return s.clone(), nil
	}
	return Session{}, apperrors.Wrapf(ErrTokenCollision, "[Cache.Create] %d attempts", maxTokenAttempts)
}

// Lookup returns the live session for token. An expired session is removed
// and reported as absent.
func (c *Cache) Lookup(token string) (Session, bool) {
	c.mu.RLock()
	s, ok := c.sessions[token]
	c.mu.RUnlock()
	if !ok {
		return Session{}, false
	}

	now := c.now()
	if !s.IsExpired(now) {
		return s.clone(), true
	}

	c.mu.Lock()
	// The entry may have been replaced between the two locks.
	if current, ok := c.sessions[token]; ok && current.IsExpired(now) {
		delete(c.sessions, token)
	}
	c.mu.Unlock()
	return Session{}, false
}

// Invalidate removes the session for token. It reports whether one existed.
func (c *Cache) Invalidate(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[token]; !ok {
		return false
	}
	delete(c.sessions, token)
	return true
}

// Sweep removes every expired session and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for token, s := range c.sessions {
		if s.IsExpired(now) {
			delete(c.sessions, token)
			removed++
		}
	}
	return removed
}

// Size is the number of stored sessions, including expired ones not yet swept.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// StartCleanup runs Sweep every sweep interval until ctx is done or Stop is called.
func (c *Cache) StartCleanup(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					log.Debug().Int("count", n).Msg("swept expired sessions")
				}
			}
		}
	}()
}

// Stop ends the cleanup goroutine and waits for it. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
}
