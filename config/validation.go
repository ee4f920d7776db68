package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// Validate checks every section of cfg and returns the first failure.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := validateBackend(&cfg.Backend); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}
	if err := cfg.Observability.Validate(); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}
	return nil
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name", "SCAFFOLD_APP_NAME", "app.name")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("unknown environment %q", cfg.Env), validEnvs)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Level)) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level), validLogLevels)
	}
	return nil
}

func validateBackend(cfg *BackendConfig) error {
	if cfg.BaseURL == "" {
		return NewMissingFieldError("backend.baseurl", "SCAFFOLD_BACKEND_BASEURL", "backend.baseurl")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewInvalidFieldError("backend.baseurl", "must be an absolute http(s) url", nil)
	}

	if cfg.Timeout <= 0 {
		return NewInvalidFieldError("backend.timeout", "must be positive", nil)
	}
	if cfg.Timeouts.Preview <= 0 {
		return NewInvalidFieldError("backend.timeouts.preview", "must be positive", nil)
	}
	if cfg.Timeouts.Generate <= 0 {
		return NewInvalidFieldError("backend.timeouts.generate", "must be positive", nil)
	}

	if cfg.Retry.Max < 0 {
		return NewInvalidFieldError("backend.retry.max", "must not be negative", nil)
	}
	for i, d := range cfg.Retry.Schedule {
		if d < 0 {
			return NewInvalidFieldError(fmt.Sprintf("backend.retry.schedule[%d]", i), "must not be negative", nil)
		}
	}

	if cfg.RateLimit.RPS < 0 {
		return NewInvalidFieldError("backend.ratelimit.rps", "must not be negative", nil)
	}
	if cfg.RateLimit.Enabled() && cfg.RateLimit.Burst < 1 {
		return NewInvalidFieldError("backend.ratelimit.burst", "must be at least 1 when rate limiting is enabled", nil)
	}
	return nil
}
