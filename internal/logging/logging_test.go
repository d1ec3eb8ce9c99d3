package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriter(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logger := SetupWithWriter("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("username", "test").Msg("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "visible", entry["message"])
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "test", entry["username"])
}

func TestSetupWithWriter_UnknownLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	SetupWithWriter("chatty", &bytes.Buffer{})
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestTokenPrefix(t *testing.T) {
	require.Equal(t, "abc", TokenPrefix("abc"))
	require.Equal(t, "0f8fad5b…", TokenPrefix("0f8fad5b-d9cb-469f-a165-70867728950e"))
}
