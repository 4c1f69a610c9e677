package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
// Zero values are filled from the HCL configuration and then from built-in
// defaults when the App is created.
type Config struct {
	ConfigPath string // hcl file or directory, optional

	ListenAddr      string
	HealthcheckPort int
	LogFormat       string
	LogLevel        string

	StorageDriver string // "memory" or "badger"
	DataDir       string
	StoragePrefix string
	QuotaBytes    int64
	SyncWrites    bool

	RemoteURL     string
	RemoteTimeout time.Duration
	Debounce      time.Duration

	TelemetryURL string

	// MockAPI serves the graph API from the configured catalog.
	MockAPI     bool
	MockLatency time.Duration

	// InitialApp is selected when the app starts.
	InitialApp string
}

// Built-in defaults.
const (
	DefaultListenAddr    = ":8080"
	DefaultStorageDriver = "memory"
	DefaultRemoteTimeout = 10 * time.Second
	DefaultDebounce      = 250 * time.Millisecond
)

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	switch cfg.StorageDriver {
	case "", "memory", "badger":
	default:
		return nil, fmt.Errorf("invalid storage driver %q: must be 'memory' or 'badger'", cfg.StorageDriver)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.QuotaBytes < 0 {
		return nil, errors.New("quota must not be negative")
	}
	if cfg.RemoteTimeout < 0 || cfg.Debounce < 0 || cfg.MockLatency < 0 {
		return nil, errors.New("durations must not be negative")
	}
	for name, raw := range map[string]string{"remote url": cfg.RemoteURL, "telemetry url": cfg.TelemetryURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid %s %q", name, raw)
		}
	}
	return &cfg, nil
}
