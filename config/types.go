package config

import (
	"time"

	"github.com/scaffoldkit/scaffold-client/observability"
)

// Config is the full configuration of a scaffold client process.
type Config struct {
	App           AppConfig            `koanf:"app"`
	Log           LogConfig            `koanf:"log"`
	Backend       BackendConfig        `koanf:"backend"`
	Observability observability.Config `koanf:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
	Env     string `koanf:"env"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// BackendConfig describes how to reach the generation backend.
type BackendConfig struct {
	// BaseURL is the absolute URL every endpoint path is resolved against.
	BaseURL string `koanf:"baseurl"`

	// Timeout is the per-attempt deadline for calls without an override.
	Timeout time.Duration `koanf:"timeout"`

	Retry    RetryConfig     `koanf:"retry"`
	Timeouts OperationConfig `koanf:"timeouts"`

	RateLimit RateLimitConfig `koanf:"ratelimit"`

	// LogPayloads enables debug previews of request and response bodies.
	LogPayloads bool `koanf:"logpayloads"`

	// RetryTimeouts makes timed-out attempts retryable. Off by default.
	RetryTimeouts bool `koanf:"retrytimeouts"`
}

// RetryConfig controls the retry budget and backoff schedule.
// Schedule accepts a YAML list or a comma separated string ("1s,2s,4s").
type RetryConfig struct {
	Max      int             `koanf:"max"`
	Schedule []time.Duration `koanf:"schedule"`
}

// OperationConfig holds per-operation timeout overrides.
type OperationConfig struct {
	Preview  time.Duration `koanf:"preview"`
	Generate time.Duration `koanf:"generate"`
}

// RateLimitConfig configures the optional client-side limiter.
// RPS of zero disables it.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// Enabled reports whether a limiter should be installed.
func (r RateLimitConfig) Enabled() bool {
	return r.RPS > 0
}
