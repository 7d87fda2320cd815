package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all tool settings, populated from FARS_-prefixed environment
// variables.
type Config struct {
	// DataDir is the directory holding accident_<year>.csv.bz2 files.
	DataDir string `env:"DATA_DIR" envDefault:"."`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Workers bounds how many vintage files are read concurrently during
	// aggregation. 1 keeps reads sequential.
	Workers int `env:"WORKERS" envDefault:"1"`

	// CacheSize is the number of decoded vintage files kept in memory, so
	// a run that touches the same year twice decompresses it once.
	CacheSize int `env:"CACHE_SIZE" envDefault:"8"`

	// MetricsFile, when set, receives final Prometheus counter values in
	// text exposition format at the end of a run.
	MetricsFile string `env:"METRICS_FILE"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "FARS_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("FARS_DATA_DIR must not be empty")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("FARS_WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Workers > 64 {
		return nil, fmt.Errorf("FARS_WORKERS must be at most 64, got %d", cfg.Workers)
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("FARS_CACHE_SIZE must be at least 1, got %d", cfg.CacheSize)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid FARS_LOG_FORMAT %q (want json or text)", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return nil, fmt.Errorf("invalid FARS_LOG_LEVEL %q", cfg.LogLevel)
	}

	return cfg, nil
}
