package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/jrsteele09/timely-server/internal/utils"
)

// source reads typed values out of the loaded koanf tree, falling back to a
// default when a key is absent.
type source struct {
	k *koanf.Koanf
}

func (s source) str(key, defaultValue string) string {
	if s.k == nil || !s.k.Exists(key) {
		return defaultValue
	}
	if value := strings.TrimSpace(s.k.String(key)); value != "" {
		return value
	}
	return defaultValue
}

func (s source) integer(key string, defaultValue int) int {
	if s.k == nil || !s.k.Exists(key) {
		return defaultValue
	}
	return s.k.Int(key)
}

func (s source) duration(key string, defaultValue time.Duration) time.Duration {
	if s.k == nil || !s.k.Exists(key) {
		return defaultValue
	}
	if d := s.k.Duration(key); d > 0 {
		return d
	}
	return defaultValue
}

func (s source) boolean(key string) bool {
	return s.k != nil && s.k.Bool(key)
}

// strings accepts either a YAML list or a comma separated string, the latter
// being the only form an environment variable can carry.
func (s source) strings(key string) []string {
	if s.k == nil || !s.k.Exists(key) {
		return nil
	}
	if raw, ok := s.k.Get(key).(string); ok {
		return utils.SplitList(raw)
	}
	return s.k.Strings(key)
}
