// Package cli implements the scaffoldctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scaffoldkit/scaffold-client/config"
	"github.com/scaffoldkit/scaffold-client/httpclient"
	"github.com/scaffoldkit/scaffold-client/logger"
	"github.com/scaffoldkit/scaffold-client/observability"
	"github.com/scaffoldkit/scaffold-client/scaffold"
)

// GlobalOptions holds flags shared by every command
type GlobalOptions struct {
	ConfigFile string
	EnvFile    string
	BaseURL    string
	LogLevel   string
	Verbose    bool

	// EnvPrefix is passed to config.Load; tests set "-" to ignore the environment.
	EnvPrefix string
}

// NewRootCommand creates the scaffoldctl root command
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &GlobalOptions{})
}

func newRootCommand(version string, opts *GlobalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scaffoldctl",
		Short: "Generate scaffold meshes with the generation backend",
		Long: `Command line client for the scaffold generation backend.

Requests are retried on server and network errors with a 1s/2s/4s backoff.
Configuration is read from an optional YAML file and SCAFFOLD_* environment
variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.EnvFile, "env-file", "", "dotenv file loaded before SCAFFOLD_* variables are read (default: .env if present)")
	flags.StringVar(&opts.BaseURL, "base-url", "", "Backend base URL (overrides configuration)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level (overrides configuration)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Shortcut for --log-level debug")

	rootCmd.AddCommand(
		NewGenerateCommand(opts),
		NewPreviewCommand(opts),
		NewTypesCommand(opts),
		NewHealthCommand(opts),
		NewVersionCommand(version),
	)
	return rootCmd
}

// session is everything a command needs to talk to the backend
type session struct {
	cfg      *config.Config
	log      logger.Logger
	client   *scaffold.Client
	provider observability.Provider
}

func (s *session) close() {
	if err := observability.Shutdown(s.provider, observability.DefaultShutdownTimeout); err != nil {
		s.log.Warn().Err(err).Msg("Observability shutdown failed")
	}
}

// newSession loads configuration and builds the logger, the observability
// provider and the scaffold client.
func newSession(cmd *cobra.Command, opts *GlobalOptions) (*session, error) {
	if err := loadDotenv(opts); err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Options{
		File:      opts.ConfigFile,
		Required:  opts.ConfigFile != "",
		EnvPrefix: opts.EnvPrefix,
	})
	if err != nil {
		return nil, err
	}
	if opts.BaseURL != "" {
		cfg.Backend.BaseURL = opts.BaseURL
	}

	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.Verbose {
		level = "debug"
	}
	log := logger.NewWithOptions(logger.Options{
		Level:  level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})

	provider, err := observability.NewProvider(&cfg.Observability, log)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}

	client := scaffold.New(log, scaffold.OptionsFromConfig(&cfg.Backend), func(b *httpclient.Builder) {
		b.WithTracerProvider(provider.TracerProvider()).
			WithMeterProvider(provider.MeterProvider())
	})

	return &session{cfg: cfg, log: log, client: client, provider: provider}, nil
}

// loadDotenv fills unset environment variables from a dotenv file. Variables
// already present in the environment win.
func loadDotenv(opts *GlobalOptions) error {
	if opts.EnvPrefix == "-" {
		return nil
	}
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
