package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/specialistvlad/flowkeeper/internal/app"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "FLOWKEEPER_"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// env reads FLOWKEEPER_* variables and remembers malformed values.
type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(name, def string) string {
	if v := e.getenv(EnvPrefix + name); v != "" {
		return v
	}
	return def
}

func (e *env) intVal(name string, def int) int {
	raw := e.getenv(EnvPrefix + name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return def
	}
	return v
}

func (e *env) boolVal(name string, def bool) bool {
	raw := e.getenv(EnvPrefix + name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return def
	}
	return v
}

func (e *env) durationVal(name string, def time.Duration) time.Duration {
	raw := e.getenv(EnvPrefix + name)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return def
	}
	return v
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// getenv supplies flag defaults; pass os.Getenv.
func Parse(args []string, output io.Writer, getenv func(string) string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("flowkeeper", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Flowkeeper - keeps a service topology graph in sync between a graph API and
local snapshot storage, and serves it to a local UI.

Usage:
  flowkeeper [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Every option can also be set through FLOWKEEPER_<NAME>, for example
FLOWKEEPER_REMOTE_URL. Variables from a .env file are loaded first.

Options:
`)
		flagSet.PrintDefaults()
	}

	e := &env{getenv: getenv}
	configFlag := flagSet.String("config", e.str("CONFIG", ""), "Path to the configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the configuration file or directory (shorthand).")
	listenFlag := flagSet.String("listen", e.str("LISTEN", ""), "HTTP listen address. Default "+app.DefaultListenAddr+".")
	healthPortFlag := flagSet.Int("healthcheck-port", e.intVal("HEALTHCHECK_PORT", 0), "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", e.str("LOG_FORMAT", "json"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", e.str("LOG_LEVEL", "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	storageFlag := flagSet.String("storage", e.str("STORAGE", ""), "Snapshot storage driver: 'memory' or 'badger'.")
	dataDirFlag := flagSet.String("data-dir", e.str("DATA_DIR", ""), "Directory for badger storage. Empty keeps badger in memory.")
	prefixFlag := flagSet.String("storage-prefix", e.str("STORAGE_PREFIX", ""), "Key prefix for stored snapshots.")
	quotaFlag := flagSet.Int("quota-bytes", e.intVal("QUOTA_BYTES", 0), "Byte quota for in-memory storage. 0 is unlimited.")
	remoteFlag := flagSet.String("remote-url", e.str("REMOTE_URL", ""), "Base URL of the graph API. Empty serves the built-in API.")
	timeoutFlag := flagSet.Duration("remote-timeout", e.durationVal("REMOTE_TIMEOUT", 0), "Timeout for graph API requests.")
	debounceFlag := flagSet.Duration("debounce", e.durationVal("DEBOUNCE", 0), "Coalescing window for snapshot saves.")
	telemetryFlag := flagSet.String("telemetry-url", e.str("TELEMETRY_URL", ""), "socket.io endpoint streaming node metrics.")
	mockFlag := flagSet.Bool("mock-api", e.boolVal("MOCK_API", false), "Serve the graph API from the configured catalog.")
	latencyFlag := flagSet.Duration("mock-latency", e.durationVal("MOCK_LATENCY", 0), "Artificial latency of the built-in graph API.")
	selectFlag := flagSet.String("select", e.str("SELECT", ""), "Application to select at startup.")

	if len(e.errs) > 0 {
		return nil, false, &ExitError{Code: 2, Message: errors.Join(e.errs...).Error()}
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *configFlag
	if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	cfg, err := app.NewConfig(app.Config{
		ConfigPath:      path,
		ListenAddr:      *listenFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		StorageDriver:   strings.ToLower(*storageFlag),
		DataDir:         *dataDirFlag,
		StoragePrefix:   *prefixFlag,
		QuotaBytes:      int64(*quotaFlag),
		RemoteURL:       *remoteFlag,
		RemoteTimeout:   *timeoutFlag,
		Debounce:        *debounceFlag,
		TelemetryURL:    *telemetryFlag,
		MockAPI:         *mockFlag,
		MockLatency:     *latencyFlag,
		InitialApp:      *selectFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
