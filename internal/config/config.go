// Package config loads runtime configuration for the route KPI tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration.
var (
	// ErrInvalidConfig indicates a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the application configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or console.
	LogFormat string `yaml:"log_format"`
	// Environment names the deployment, e.g. development or production.
	Environment string `yaml:"environment"`

	// Concurrency bounds the routes scanned at once within one solution.
	Concurrency int `yaml:"concurrency"`
	// BatchWorkers is the number of solution files analyzed at once.
	BatchWorkers int `yaml:"batch_workers"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	// Secure dials the collector over TLS.
	Secure bool `yaml:"secure"`
	// ExportInterval is the metric push period, e.g. "30s".
	ExportInterval time.Duration `yaml:"export_interval"`
	// SampleRatio is the fraction of runs traced, in (0, 1].
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    "json",
		Environment:  "development",
		Concurrency:  4,
		BatchWorkers: 3,
		Telemetry: TelemetryConfig{
			Enabled:        false,
			OTLPEndpoint:   "localhost:4317",
			ExportInterval: 15 * time.Second,
			SampleRatio:    1,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when empty), then the .env file at envFile (".env" in the working
// directory when empty, ignored if missing), then environment variables.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env") //nolint:errcheck // optional local overrides
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnvString("ROUTEKPI_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvString("ROUTEKPI_LOG_FORMAT", c.LogFormat)
	c.Environment = getEnvString("APP_ENV", c.Environment)
	c.Concurrency = getEnvInt("ROUTEKPI_CONCURRENCY", c.Concurrency)
	c.BatchWorkers = getEnvInt("ROUTEKPI_BATCH_WORKERS", c.BatchWorkers)
	c.Telemetry.Enabled = getEnvBool("OTEL_ENABLED", c.Telemetry.Enabled)
	c.Telemetry.OTLPEndpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
	c.Telemetry.ExportInterval = getEnvMillis("OTEL_METRIC_EXPORT_INTERVAL", c.Telemetry.ExportInterval)
	c.Telemetry.SampleRatio = getEnvFloat("OTEL_TRACES_SAMPLER_ARG", c.Telemetry.SampleRatio)
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("%w: batch_workers must be positive, got %d", ErrInvalidConfig, c.BatchWorkers)
	}
	if c.Telemetry.ExportInterval <= 0 {
		return fmt.Errorf("%w: telemetry.export_interval must be positive, got %s", ErrInvalidConfig, c.Telemetry.ExportInterval)
	}
	if c.Telemetry.SampleRatio <= 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: telemetry.sample_ratio must be in (0, 1], got %g", ErrInvalidConfig, c.Telemetry.SampleRatio)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log_format must be json or console, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvMillis reads an integer number of milliseconds, the unit the
// OTEL_METRIC_* variables use.
func getEnvMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
