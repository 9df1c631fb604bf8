package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/flowrun/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAddr, cfg.Addr)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "flowrun.yaml", `
addr: ":9090"
log_level: debug
graphs_dir: ./graphs
strict: true
redis:
  addr: localhost:6379
  db: 2
  prefix: "test:"
  ttl: 1h30m
pii:
  patterns: ["password", "ssn"]
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "./graphs", cfg.GraphsDir)
	assert.True(t, cfg.Strict)
	assert.True(t, cfg.MetricsEnabled, "unset keys keep their defaults")
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "test:", cfg.Redis.Prefix)
	assert.Equal(t, 90*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"password", "ssn"}, cfg.PII.Patterns)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "flowrun.json", `{"addr": ":7000", "metrics_enabled": false, "redis": {"ttl": "30s"}}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.False(t, cfg.MetricsEnabled)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := config.Load(write(t, "c.yaml", "adress: \":1\"\n"))
		assert.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		_, err := config.Load(write(t, "c.yaml", "redis:\n  ttl: soon\n"))
		assert.Error(t, err)
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := config.Load(write(t, "c.json", "{"))
		assert.Error(t, err)
	})
	t.Run("negative db", func(t *testing.T) {
		_, err := config.Load(write(t, "c.yaml", "redis:\n  db: -1\n"))
		assert.Error(t, err)
	})
}
