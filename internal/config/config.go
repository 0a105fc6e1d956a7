package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all simulator configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Sim       SimConfig
	Trace     TraceConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string `envconfig:"PORT" default:"8090"`
	Host     string `envconfig:"HOST" default:"0.0.0.0"`
	MaxConns int    `envconfig:"MAX_CONNS" default:"256"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SimConfig holds workload discovery and execution configuration.
type SimConfig struct {
	ManifestDir   string        `envconfig:"SIM_MANIFEST_DIR" default:"./manifests"`
	ManifestGlob  string        `envconfig:"SIM_MANIFEST_GLOB" default:"**/*.{yaml,yml,toml,json}"`
	Scenario      string        `envconfig:"SIM_SCENARIO" default:""`
	ScriptTimeout time.Duration `envconfig:"SIM_SCRIPT_TIMEOUT" default:"10s"`
}

// TraceConfig holds event trace output configuration. An empty path
// disables tracing.
type TraceConfig struct {
	Path  string `envconfig:"TRACE_PATH" default:""`
	Codec string `envconfig:"TRACE_CODEC" default:"gzip"`
}

// TelemetryConfig holds report delivery configuration. An empty URL
// disables delivery.
type TelemetryConfig struct {
	URL     string        `envconfig:"TELEMETRY_URL" default:""`
	Timeout time.Duration `envconfig:"TELEMETRY_TIMEOUT" default:"5s"`
	Retries int           `envconfig:"TELEMETRY_RETRIES" default:"2"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     "8090",
			Host:     "0.0.0.0",
			MaxConns: 256,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Sim: SimConfig{
			ManifestDir:   "./manifests",
			ManifestGlob:  "**/*.{yaml,yml,toml,json}",
			ScriptTimeout: 10 * time.Second,
		},
		Trace: TraceConfig{
			Codec: "gzip",
		},
		Telemetry: TelemetryConfig{
			Timeout: 5 * time.Second,
			Retries: 2,
		},
	}
}
