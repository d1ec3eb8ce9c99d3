package config

import (
	"net/url"
	"strings"

	"github.com/knadh/koanf/v2"

	apperrors "github.com/jrsteele09/timely-server/internal/errors"
)

type Config interface {
	EnvConfig
	HTTPConfig
	SessionConfig
	CorsConfig
	SecurityConfig
	CredentialsConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type HTTPConfig interface {
	GetServerAddress() string
	GetUIAddress() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	HTTP
	Session
	Cors
	Security
	Credentials
}

var _ Config = mainConfig{}

// Load reads the YAML file at path (optional) and overlays environment variables.
func Load(path string) (Config, error) {
	k, err := newLoader(withConfigFile(path)).load()
	if err != nil {
		return nil, err
	}
	return fromKoanf(k), nil
}

// NewFromMap builds a configuration from a nested map. Used by tests and embedders.
func NewFromMap(values map[string]any) Config {
	k := koanf.New(".")
	_ = k.Load(mapProvider(values), nil)
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) Config {
	src := source{k: k}
	return mainConfig{
		EnvVars:     EnvVars{src},
		HTTP:        HTTP{src},
		Session:     Session{src},
		Cors:        Cors{src},
		Security:    Security{src},
		Credentials: Credentials{src},
	}
}

// Validate checks the settings the login subsystem cannot start without.
func (c mainConfig) Validate() error {
	if c.GetMaxSessionAge() < minSessionAge {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "session.max_age must be at least 1 second")
	}
	if strings.TrimSpace(c.GetCookieName()) == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "session.cookie_name is required")
	}
	if strings.TrimSpace(c.GetServerAddress()) == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "http.server_address is required")
	}
	if _, err := CookieDomain(c.GetServerAddress()); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "http.server_address %q is not a valid cookie domain", c.GetServerAddress())
	}
	if _, err := url.Parse(c.GetUIAddress()); err != nil || c.GetUIAddress() == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidConfig, "http.ui_address %q is not a valid URL", c.GetUIAddress())
	}
	return c.Credentials.validate()
}
