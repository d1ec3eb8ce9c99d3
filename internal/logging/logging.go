// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. DEV gets a coloured console writer,
// every other environment gets JSON lines on stderr.
func Setup(level, env string) zerolog.Logger {
	var out io.Writer = os.Stderr
	if strings.EqualFold(env, "DEV") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return SetupWithWriter(level, out)
}

// SetupWithWriter is Setup with an explicit destination.
func SetupWithWriter(level string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// TokenPrefix shortens a session token for log output.
func TokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "…"
}
