// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a .env file, an optional YAML file and INSIGHTS_* env vars on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// User store backends accepted by UserStore.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the size of a single uploaded export.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// ForecastHorizon is the number of days projected past the last observed date.
	ForecastHorizon int `koanf:"forecast_horizon"`

	// PreviewRows is the number of cleaned records echoed back after an upload.
	PreviewRows int `koanf:"preview_rows"`

	// MaxWarnings bounds the sample of data-quality warnings kept per upload.
	MaxWarnings int `koanf:"max_warnings"`

	// UserStore selects the account backend: memory, file or postgres.
	UserStore string `koanf:"user_store"`

	// UserFile is the CSV users file used by the file store.
	UserFile string `koanf:"user_file"`

	// DatabaseURL is the Postgres DSN used by the postgres store.
	DatabaseURL string `koanf:"database_url"`

	// SessionTTLMinutes is the lifetime of a login session.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// JWTSecret signs session tokens. A random secret is generated when empty.
	JWTSecret string `koanf:"jwt_secret"`

	// Workers is the number of pipeline runs processed at once. Zero uses one per CPU.
	Workers int `koanf:"workers"`

	// QueueCapacity is how many uploads may wait for a free worker.
	QueueCapacity int `koanf:"queue_capacity"`

	// UploadRatePerSecond and UploadBurst configure the upload rate limiter.
	UploadRatePerSecond float64 `koanf:"upload_rate_per_second"`
	UploadBurst         int     `koanf:"upload_burst"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		MaxUploadBytes:      32 << 20,
		ForecastHorizon:     7,
		PreviewRows:         5,
		MaxWarnings:         20,
		UserStore:           StoreFile,
		UserFile:            "users.csv",
		SessionTTLMinutes:   60,
		Workers:             4,
		QueueCapacity:       64,
		UploadRatePerSecond: 5,
		UploadBurst:         10,
	}
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
