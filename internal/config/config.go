// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// Package config loads layered configuration for the orchestrator and
// worker binaries: built-in defaults, then an optional YAML file, then
// environment variables, with ENV > file > defaults precedence.
package config

import (
	"fmt"
	"time"
)

// ConfigPathEnvVar points at an explicit config file location.
const ConfigPathEnvVar = "SYNCFLEET_CONFIG"

// DefaultConfigPaths are searched in order when no explicit path is set.
var DefaultConfigPaths = []string{
	"syncfleet.yaml",
	"config/syncfleet.yaml",
	"/etc/syncfleet/syncfleet.yaml",
}

// Config is the root configuration shared by both binaries.
type Config struct {
	Logging      LoggingConfig      `koanf:"logging"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Worker       WorkerConfig       `koanf:"worker"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// OrchestratorConfig configures the hub server and the HTTP API.
type OrchestratorConfig struct {
	// ListenAddr serves both the hub websocket endpoint and the API.
	ListenAddr string `koanf:"listen_addr"`

	// CallTimeout bounds each routed worker call.
	CallTimeout time.Duration `koanf:"call_timeout"`

	// APISecret signs and verifies API bearer tokens.
	APISecret string `koanf:"api_secret"`

	// WorkerCredentials maps worker names to their connect secrets.
	WorkerCredentials map[string]string `koanf:"worker_credentials"`
}

// WorkerConfig configures the worker binary.
type WorkerConfig struct {
	// Name is the worker's logical identity on the hub.
	Name string `koanf:"name"`

	// HubURL is the orchestrator's websocket endpoint.
	HubURL string `koanf:"hub_url"`

	// HubSecret is the connect-time credential.
	HubSecret string `koanf:"hub_secret"`

	// ReconnectBackoff is the ordered reconnect delay schedule.
	ReconnectBackoff []time.Duration `koanf:"reconnect_backoff"`

	// Parallelism bounds the per-job fan-out degree.
	Parallelism int64 `koanf:"parallelism"`

	// BatchSize is the soft target per emitted batch.
	BatchSize int `koanf:"batch_size"`

	// BufferSize triggers eager batch emission while pushing.
	BufferSize int `koanf:"buffer_size"`

	// SinkURL is the upstream ingestion endpoint.
	SinkURL string `koanf:"sink_url"`

	// CacheDir is the durable interaction cache root. Empty selects
	// the in-memory cache.
	CacheDir string `koanf:"cache_dir"`

	// CacheSecret encrypts durable cache blobs.
	CacheSecret string `koanf:"cache_secret"`
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Orchestrator: OrchestratorConfig{
			ListenAddr:  ":8080",
			CallTimeout: 30 * time.Second,
		},
		Worker: WorkerConfig{
			HubURL:      "ws://localhost:8080/hub",
			Parallelism: 4,
			BatchSize:   500,
			BufferSize:  2000,
			ReconnectBackoff: []time.Duration{
				time.Second,
				5 * time.Second,
				15 * time.Second,
				30 * time.Second,
				time.Minute,
			},
		},
	}
}

// Validate checks cross-field constraints after loading.
func (c *Config) Validate() error {
	if c.Worker.Parallelism < 1 {
		return fmt.Errorf("worker.parallelism must be at least 1, got %d", c.Worker.Parallelism)
	}
	if c.Worker.BatchSize < 1 {
		return fmt.Errorf("worker.batch_size must be at least 1, got %d", c.Worker.BatchSize)
	}
	if c.Worker.BufferSize < c.Worker.BatchSize {
		return fmt.Errorf("worker.buffer_size (%d) must not be below worker.batch_size (%d)",
			c.Worker.BufferSize, c.Worker.BatchSize)
	}
	if c.Orchestrator.CallTimeout <= 0 {
		return fmt.Errorf("orchestrator.call_timeout must be positive, got %s", c.Orchestrator.CallTimeout)
	}
	if c.Worker.CacheDir != "" && c.Worker.CacheSecret == "" {
		return fmt.Errorf("worker.cache_secret is required when worker.cache_dir is set")
	}
	return nil
}
