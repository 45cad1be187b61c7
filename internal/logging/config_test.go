package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		require.True(t, ok, "raw=%q", raw)
		require.Equal(t, want, got, "raw=%q", raw)
	}

	_, ok := parseLevel("loud")
	require.False(t, ok)
	_, ok = parseLevel("")
	require.False(t, ok)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogJSON, "true")

	cfg := DefaultConfig(ProfileRuntime)
	require.NoError(t, applyEnvOverrides(&cfg))
	require.Equal(t, zerolog.ErrorLevel, cfg.Level)
	require.False(t, cfg.Timestamp)
	require.True(t, cfg.JSON)
	require.False(t, cfg.NoColor)
}

func TestApplyEnvOverridesRejectsBadBool(t *testing.T) {
	t.Setenv(EnvLogNoColor, "maybe")

	cfg := DefaultConfig(ProfileTest)
	require.Error(t, applyEnvOverrides(&cfg))
	require.Equal(t, DefaultConfig(ProfileTest), cfg)
}

func TestNewWithWriterHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: zerolog.WarnLevel}, &buf)

	logger.Info().Msg("hidden")
	require.Zero(t, buf.Len())

	logger.Warn().Str("member", "0").Msg("shown")
	require.Contains(t, buf.String(), `"member":"0"`)
	require.NotContains(t, buf.String(), `"time"`)
}
