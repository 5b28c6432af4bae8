package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read directly by the loader.
const (
	envPrefix     = "INSIGHTS_"
	envConfigFile = "INSIGHTS_CONFIG"
	envDotenvFile = "INSIGHTS_DOTENV"
	defaultDotenv = ".env"
)

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if INSIGHTS_CONFIG is set
//  3. env (prefix INSIGHTS_), including values from a .env file
//
// The .env file never overrides variables already present in the process env.
func Load(_ context.Context) (*Config, error) {
	base := New()

	if err := loadDotenv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// INSIGHTS_FORECAST_HORIZON -> forecast_horizon (flat keys).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotenv copies a .env file into the process environment when one exists.
// INSIGHTS_DOTENV points at an explicit file, which must then exist.
func loadDotenv() error {
	path, explicit := os.LookupEnv(envDotenvFile)
	if !explicit {
		path = defaultDotenv
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: dotenv %s: %v", ErrLoadConfig, path, err)
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ForecastHorizon < 1 {
		return fmt.Errorf("%w: forecast_horizon must be at least 1", ErrInvalidConfig)
	}
	if c.PreviewRows < 0 {
		return fmt.Errorf("%w: preview_rows must not be negative", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("%w: queue_capacity must be at least 1", ErrInvalidConfig)
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	}
	switch c.UserStore {
	case StoreMemory:
	case StoreFile:
		if c.UserFile == "" {
			return fmt.Errorf("%w: user_file is required for the file store", ErrInvalidConfig)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown user_store %q", ErrInvalidConfig, c.UserStore)
	}
	return nil
}
