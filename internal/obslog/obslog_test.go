package obslog

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.NotNil(t, cfg.Output)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestSetup_WritesJSONRecordsAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(Config{Level: "warn", Output: &buf})

	logger.Info("ignored because below configured level")
	logger.Warn("schema repair degraded", "attempt", 2)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "schema repair degraded", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.EqualValues(t, 2, record["attempt"])
}

func TestSetup_InstallsPackageLevelLogger(t *testing.T) {
	var buf bytes.Buffer
	installed := Setup(Config{Level: "debug", Output: &buf})

	assert.Same(t, installed, Logger())
}

func TestLogger_DefaultsToStderrWhenOutputNil(t *testing.T) {
	logger := Setup(Config{Level: "info"})
	require.NotNil(t, logger)
}
