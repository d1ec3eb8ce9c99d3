package config

import "time"

const (
	cookieNameKey    = "session.cookie_name"
	maxAgeKey        = "session.max_age"
	sweepIntervalKey = "session.sweep_interval"

	DefaultCookieName    = "TSESSIONID"
	DefaultMaxAgeSeconds = 86400
	DefaultSweepInterval = time.Minute
	minSessionAge        = time.Second
)

type SessionConfig interface {
	GetCookieName() string
	GetMaxSessionAge() time.Duration
	GetSessionSweepInterval() time.Duration
}

type Session struct {
	src source
}

var _ SessionConfig = Session{}

func (s Session) GetCookieName() string {
	return s.src.str(cookieNameKey, DefaultCookieName)
}

// GetMaxSessionAge reads session.max_age, expressed in whole seconds.
func (s Session) GetMaxSessionAge() time.Duration {
	return time.Duration(s.src.integer(maxAgeKey, DefaultMaxAgeSeconds)) * time.Second
}

func (s Session) GetSessionSweepInterval() time.Duration {
	return s.src.duration(sweepIntervalKey, DefaultSweepInterval)
}
