// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Package config loads Taxidash configuration.
//
// Configuration is layered with Koanf v2 (highest priority wins):
//
//  1. Environment variables (see envTransformFunc for the accepted names)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/taxidash/config.yaml)
//  3. Built-in defaults
//
// Load validates the result before returning it.
package config

import "time"

// Config is the root configuration object.
type Config struct {
	Dataset  DatasetConfig  `koanf:"dataset"`
	Model    ModelConfig    `koanf:"model"`
	Database DatabaseConfig `koanf:"database"`
	Engine   EngineConfig   `koanf:"engine"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatasetConfig locates the prepared trip dataset and the reference tables.
type DatasetConfig struct {
	// TripsRoot is the partitioned Parquet root (year=Y/month=M/*.parquet).
	TripsRoot string `koanf:"trips_root"`

	// RawDir holds taxi_zone_lookup.csv.
	RawDir string `koanf:"raw_dir"`

	// ArtifactsDir holds zone_centroids.csv.
	ArtifactsDir string `koanf:"artifacts_dir"`
}

// ModelConfig locates the exported fare model bundle.
type ModelConfig struct {
	Path    string `koanf:"path"`
	Preload bool   `koanf:"preload"` // load at startup; failure is logged, not fatal
}

// DatabaseConfig holds DuckDB settings. The database only hosts queries over
// Parquet and CSV files, so an in-memory database is the normal choice.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// EngineConfig tunes the aggregation engine.
type EngineConfig struct {
	// Workers is the size of the partition worker pool (0 = runtime.NumCPU()).
	Workers int `koanf:"workers"`

	// BreakerFailures is the number of consecutive query failures that opens the breaker.
	BreakerFailures uint32 `koanf:"breaker_failures"`

	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig controls the analytics result cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Size    int           `koanf:"size"`
	TTL     time.Duration `koanf:"ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, an optional file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
