package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyword-volume/pkg/source"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewManager().Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Sources.Trends.Enabled)
	assert.Equal(t, source.DefaultTrendEndpoint, cfg.Sources.Trends.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Sources.Autocomplete.Timeout)
	assert.Equal(t, 0, cfg.Sources.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Heuristic.Delay)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
sources:
  autocomplete:
    enabled: false
cache:
  backend: memory
  ttl: 1h
batch:
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("KV_SERVER_PORT", "9191")
	t.Setenv("KV_HEURISTIC_DELAY", "0s")

	cfg, err := NewManager().Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "env overrides the file")
	assert.False(t, cfg.Sources.Autocomplete.Enabled)
	assert.True(t, cfg.Sources.Trends.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Estimator().BatchWorkers)
	assert.Equal(t, time.Duration(0), cfg.Heuristic.Delay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewManager().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"KV_SERVER_PORT": "0"}},
		{"unknown backend", map[string]string{"KV_CACHE_BACKEND": "mongo"}},
		{"postgres without url", map[string]string{"KV_CACHE_BACKEND": "postgres"}},
		{"redis without url", map[string]string{"KV_CACHE_BACKEND": "redis"}},
		{"zero workers", map[string]string{"KV_BATCH_WORKERS": "0"}},
		{"negative retries", map[string]string{"KV_SOURCES_MAX_RETRIES": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewManager().Load("")
			assert.Error(t, err)
		})
	}
}

func TestReload(t *testing.T) {
	m := NewManager()
	assert.Error(t, m.Reload(), "reload before load")

	_, err := m.Load("")
	require.NoError(t, err)

	t.Setenv("KV_BATCH_WORKERS", "3")
	require.NoError(t, m.Reload())
	assert.Equal(t, 3, m.GetConfig().Batch.Workers)
}

func TestStorageMapping(t *testing.T) {
	t.Setenv("KV_CACHE_BACKEND", "redis")
	t.Setenv("KV_CACHE_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := NewManager().Load("")
	require.NoError(t, err)

	st := cfg.Storage()
	assert.Equal(t, "redis", st.Backend)
	assert.Equal(t, "redis://localhost:6379/0", st.RedisURL)
}
