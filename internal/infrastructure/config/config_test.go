package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8900", cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Pipeline.LogBuffer)
	assert.Equal(t, 5000, cfg.Pipeline.MetricBuffer)
	assert.Equal(t, 1000, cfg.Pipeline.MaxTraces)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TOOLSCOPE_PORT", "9999")
	t.Setenv("TOOLSCOPE_MAX_TRACES", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Pipeline.MaxTraces)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "cfg.json", `{"server":{"port":"7001"},"pipeline":{"log_buffer":250}}`)
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "7001", cfg.Server.Port)
		assert.Equal(t, 250, cfg.Pipeline.LogBuffer)
		// Untouched fields keep defaults
		assert.Equal(t, 5000, cfg.Pipeline.MetricBuffer)
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "cfg.yaml", "server:\n  port: \"7002\"\npipeline:\n  max_traces: 12\n")
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "7002", cfg.Server.Port)
		assert.Equal(t, 12, cfg.Pipeline.MaxTraces)
	})

	t.Run("toml", func(t *testing.T) {
		path := writeFile(t, "cfg.toml", "[server]\nport = \"7003\"\n[rate_limit]\nburst = 10\n")
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "7003", cfg.Server.Port)
		assert.Equal(t, 10, cfg.RateLimit.Burst)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "cfg.ini", "port=1")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}
