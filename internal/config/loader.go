package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding file settings.
// A double underscore separates nesting levels, so TIMELY_SESSION__MAX_AGE
// maps to session.max_age.
const EnvPrefix = "TIMELY_"

type loader struct {
	k        *koanf.Koanf
	filePath string
}

type loaderOption func(*loader)

func withConfigFile(path string) loaderOption {
	return func(l *loader) {
		l.filePath = path
	}
}

func newLoader(opts ...loaderOption) *loader {
	l := &loader{k: koanf.New(".")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// load reads the file first and the environment second, so the environment wins.
func (l *loader) load() (*koanf.Koanf, error) {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("[config load] file %s: %w", l.filePath, err)
		}
	}

	transform := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}
	if err := l.k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
		return nil, fmt.Errorf("[config load] env: %w", err)
	}
	return l.k, nil
}

var errReadBytesNotSupported = errors.New("map provider does not support ReadBytes")

// mapProvider loads an in-memory nested map into koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
