package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaffoldkit/scaffold-client/observability"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "scaffoldctl", Env: EnvDevelopment},
		Log: LogConfig{Level: "info"},
		Backend: BackendConfig{
			BaseURL:  "http://localhost:8000",
			Timeout:  30 * time.Second,
			Retry:    RetryConfig{Max: 3, Schedule: []time.Duration{time.Second}},
			Timeouts: OperationConfig{Preview: time.Minute, Generate: 2 * time.Minute},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		wantCat   string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantField: "app.name", wantCat: "missing"},
		{name: "unknown env", mutate: func(c *Config) { c.App.Env = "qa" }, wantField: "app.env", wantCat: "invalid"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantField: "log.level", wantCat: "invalid"},
		{name: "uppercase log level", mutate: func(c *Config) { c.Log.Level = "DEBUG" }},
		{name: "missing base url", mutate: func(c *Config) { c.Backend.BaseURL = "" }, wantField: "backend.baseurl", wantCat: "missing"},
		{name: "relative base url", mutate: func(c *Config) { c.Backend.BaseURL = "/api" }, wantField: "backend.baseurl", wantCat: "invalid"},
		{name: "zero timeout", mutate: func(c *Config) { c.Backend.Timeout = 0 }, wantField: "backend.timeout", wantCat: "invalid"},
		{name: "zero preview timeout", mutate: func(c *Config) { c.Backend.Timeouts.Preview = 0 }, wantField: "backend.timeouts.preview", wantCat: "invalid"},
		{name: "zero generate timeout", mutate: func(c *Config) { c.Backend.Timeouts.Generate = 0 }, wantField: "backend.timeouts.generate", wantCat: "invalid"},
		{name: "negative retries", mutate: func(c *Config) { c.Backend.Retry.Max = -1 }, wantField: "backend.retry.max", wantCat: "invalid"},
		{name: "zero retries", mutate: func(c *Config) { c.Backend.Retry.Max = 0 }},
		{name: "empty schedule", mutate: func(c *Config) { c.Backend.Retry.Schedule = nil }},
		{
			name:      "negative delay",
			mutate:    func(c *Config) { c.Backend.Retry.Schedule = []time.Duration{time.Second, -time.Second} },
			wantField: "backend.retry.schedule[1]",
			wantCat:   "invalid",
		},
		{name: "negative rps", mutate: func(c *Config) { c.Backend.RateLimit.RPS = -1 }, wantField: "backend.ratelimit.rps", wantCat: "invalid"},
		{
			name:      "rps without burst",
			mutate:    func(c *Config) { c.Backend.RateLimit = RateLimitConfig{RPS: 1} },
			wantField: "backend.ratelimit.burst",
			wantCat:   "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Equal(t, tt.wantCat, cfgErr.Category)
		})
	}
}

func TestValidateObservability(t *testing.T) {
	cfg := validConfig()
	cfg.Observability = observability.Config{Enabled: true}

	err := Validate(cfg)
	assert.ErrorIs(t, err, observability.ErrMissingServiceName)
}

func TestConfigErrorMessage(t *testing.T) {
	err := NewInvalidFieldError("app.env", "unknown environment \"qa\"", []string{EnvDevelopment, EnvProduction})
	assert.Equal(t, `config_invalid: app.env unknown environment "qa" must be one of: development, production`, err.Error())

	missing := NewMissingFieldError("backend.baseurl", "SCAFFOLD_BACKEND_BASEURL", "backend.baseurl")
	assert.Equal(t, "config_missing: backend.baseurl required set SCAFFOLD_BACKEND_BASEURL env var or add backend.baseurl to the config file", missing.Error())

	withDetails := &ConfigError{Category: "invalid", Field: "x", Details: []string{"a", "b"}}
	assert.Equal(t, "config_invalid: x a; b", withDetails.Error())
}
