package config

const (
	rateLimitEnabledKey   = "security.rate_limit.enabled"
	rateLimitPerMinuteKey = "security.rate_limit.per_minute"
	rateLimitBurstKey     = "security.rate_limit.burst"
)

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetLoginRateLimit() int
	GetLoginRateBurst() int
}

type Security struct {
	src source
}

var _ SecurityConfig = Security{}

func (s Security) GetEnableRateLimiting() bool {
	return s.src.boolean(rateLimitEnabledKey)
}

// GetLoginRateLimit is the number of login attempts allowed per client IP per minute.
func (s Security) GetLoginRateLimit() int {
	return s.src.integer(rateLimitPerMinuteKey, 30)
}

func (s Security) GetLoginRateBurst() int {
	return s.src.integer(rateLimitBurstKey, 10)
}
