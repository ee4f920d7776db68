package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
// SCAFFOLD_BACKEND_RETRY_MAX maps to backend.retry.max.
const DefaultEnvPrefix = "SCAFFOLD_"

// Options selects the sources Load reads.
type Options struct {
	// File is an optional YAML file. A missing file is ignored unless Required is set.
	File     string
	Required bool

	// EnvPrefix overrides DefaultEnvPrefix. Set to "-" to skip the environment.
	EnvPrefix string
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration file
// 3. Default values (lowest priority)
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			if opts.Required || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", opts.File, err)
			}
		}
	}

	if opts.EnvPrefix != "-" {
		if err := loadEnv(k, opts.EnvPrefix); err != nil {
			return nil, err
		}
	}

	return unmarshal(k)
}

// LoadBytes loads defaults overlaid with an in-memory YAML document.
// The environment is not consulted.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Observability.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnv(k *koanf.Koanf, prefix string) error {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	provider := env.Provider(".", env.Opt{
		Prefix: prefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, prefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "scaffoldctl",
		"app.version": "dev",
		"app.env":     EnvDevelopment,

		"log.level":  "info",
		"log.pretty": false,

		"backend.baseurl":           "http://localhost:8000",
		"backend.timeout":           "30s",
		"backend.retry.max":         3,
		"backend.retry.schedule":    []any{"1s", "2s", "4s"},
		"backend.timeouts.preview":  "60s",
		"backend.timeouts.generate": "120s",
		"backend.ratelimit.rps":     0,
		"backend.ratelimit.burst":   1,
		"backend.logpayloads":       false,
		"backend.retrytimeouts":     false,

		"observability.enabled":      false,
		"observability.service.name": "scaffoldctl",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
