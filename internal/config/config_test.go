package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TASKS_CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "cookie", cfg.Session.Store)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
database:
  driver: bolt
  bolt_path: /tmp/tasks.bolt
http:
  addr: ":9090"
  shutdown_timeout: 3s
logger:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("TASKS_CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt", cfg.Database.Driver)
	assert.Equal(t, "/tmp/tasks.bolt", cfg.Database.BoltPath)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	// Environment overrides the file
	assert.Equal(t, "warn", cfg.Logger.Level)
	// Untouched keys keep their defaults
	assert.Equal(t, "json", cfg.Logger.Encoding)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("TASKS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	assert.Equal(t, time.Minute, getDuration("SHUTDOWN_TIMEOUT", time.Minute))
}
