package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnvPrefix = "SCAFFOLDTEST_"

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(Options{EnvPrefix: testEnvPrefix})
	require.NoError(t, err)

	assert.Equal(t, "scaffoldctl", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 3, cfg.Backend.Retry.Max)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, cfg.Backend.Retry.Schedule)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeouts.Preview)
	assert.Equal(t, 120*time.Second, cfg.Backend.Timeouts.Generate)
	assert.False(t, cfg.Backend.RateLimit.Enabled())
	assert.False(t, cfg.Backend.RetryTimeouts)

	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, "scaffoldctl", cfg.Observability.Service.Name)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
app:
  env: production
log:
  level: debug
backend:
  baseurl: https://scaffold.example.com
  timeout: 10s
  retry:
    max: 5
    schedule: [250ms, 500ms]
  ratelimit:
    rps: 2.5
    burst: 3
`)

	cfg, err := Load(Options{File: path, EnvPrefix: testEnvPrefix})
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.App.Env)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://scaffold.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Backend.Retry.Max)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}, cfg.Backend.Retry.Schedule)
	assert.True(t, cfg.Backend.RateLimit.Enabled())
	assert.InDelta(t, 2.5, cfg.Backend.RateLimit.RPS, 0.0001)
	assert.Equal(t, 3, cfg.Backend.RateLimit.Burst)
	// untouched keys keep their defaults
	assert.Equal(t, 120*time.Second, cfg.Backend.Timeouts.Generate)
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(Options{File: missing, EnvPrefix: testEnvPrefix})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Backend.Retry.Max)

	_, err = Load(Options{File: missing, Required: true, EnvPrefix: testEnvPrefix})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "backend:\n  baseurl: https://file.example.com\n  retry:\n    max: 1\n")
	t.Setenv(testEnvPrefix+"BACKEND_BASEURL", "https://env.example.com")
	t.Setenv(testEnvPrefix+"BACKEND_RETRY_SCHEDULE", "100ms,200ms")
	t.Setenv(testEnvPrefix+"BACKEND_RETRYTIMEOUTS", "true")

	cfg, err := Load(Options{File: path, EnvPrefix: testEnvPrefix})
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 1, cfg.Backend.Retry.Max)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, cfg.Backend.Retry.Schedule)
	assert.True(t, cfg.Backend.RetryTimeouts)
}

func TestLoadSkipsEnvironment(t *testing.T) {
	t.Setenv(DefaultEnvPrefix+"BACKEND_RETRY_MAX", "9")

	cfg, err := Load(Options{EnvPrefix: "-"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Backend.Retry.Max)
}

func TestLoadBytes(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
observability:
  enabled: true
  service:
    name: scaffold-tests
`))
	require.NoError(t, err)

	assert.True(t, cfg.Observability.Enabled)
	assert.Equal(t, "scaffold-tests", cfg.Observability.Service.Name)
	require.NotNil(t, cfg.Observability.Trace.Enabled)
	assert.True(t, *cfg.Observability.Trace.Enabled)
}

func TestLoadBytesInvalidYAML(t *testing.T) {
	_, err := LoadBytes([]byte("backend: [unclosed"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := LoadBytes([]byte("backend:\n  baseurl: not-a-url\n"))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "invalid", cfgErr.Category)
	assert.Equal(t, "backend.baseurl", cfgErr.Field)
}
