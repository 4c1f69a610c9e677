package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/specialistvlad/flowkeeper/internal/badgerstore"
	"github.com/specialistvlad/flowkeeper/internal/config"
	"github.com/specialistvlad/flowkeeper/internal/controller"
	"github.com/specialistvlad/flowkeeper/internal/ctxlog"
	"github.com/specialistvlad/flowkeeper/internal/inmemorystore"
	"github.com/specialistvlad/flowkeeper/internal/kvstore"
	"github.com/specialistvlad/flowkeeper/internal/mockapi"
	"github.com/specialistvlad/flowkeeper/internal/remote"
	"github.com/specialistvlad/flowkeeper/internal/snapshotstore"
	"github.com/specialistvlad/flowkeeper/internal/telemetry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	kv         kvstore.Store
	snapshots  *snapshotstore.Store
	source     *remote.HTTPSource
	controller *controller.Controller
	mock       *mockapi.Server
	telemetry  *telemetry.Subscriber

	mu           sync.Mutex
	listener     net.Listener
	httpServer   *http.Server
	healthServer *http.Server
	ready        chan struct{}
}

// NewApp is the constructor for the main application. Configuration errors
// are fatal at this point and cause a panic; the entrypoint recovers it.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model := &config.Model{}
	if cfg.ConfigPath != "" && loader != nil {
		loaded, err := loader.Load(ctx, cfg.ConfigPath)
		if err != nil {
			panic(fmt.Errorf("failed to load configuration: %w", err))
		}
		model = loaded
	}
	resolved := resolve(*cfg, model)
	logger.Debug("Configuration resolved.",
		"listen", resolved.ListenAddr, "storage", resolved.StorageDriver, "remote", resolved.RemoteURL, "mock_api", resolved.MockAPI)

	a := &App{
		outW:   outW,
		logger: logger,
		config: &resolved,
		ready:  make(chan struct{}),
	}

	kv, err := a.openStore()
	if err != nil {
		panic(fmt.Errorf("failed to open snapshot storage: %w", err))
	}
	a.kv = kv
	a.snapshots = snapshotstore.New(kv, resolved.StoragePrefix, logger)

	if resolved.MockAPI {
		catalog, err := catalogFromModel(model.Apps)
		if err != nil {
			panic(fmt.Errorf("invalid application catalog: %w", err))
		}
		a.mock = mockapi.New(catalog, logger, mockapi.WithLatency(resolved.MockLatency))
		logger.Debug("Mock graph API enabled.", "apps", len(catalog.Apps))
	}

	source, err := remote.NewHTTPSource(resolved.RemoteURL, remote.NewHTTPClient(resolved.RemoteTimeout), logger)
	if err != nil {
		panic(err)
	}
	a.source = source
	a.controller = controller.New(a.snapshots, remote.NewCoalescing(source), controller.Options{
		Debounce: resolved.Debounce,
		Logger:   logger,
	})

	if resolved.TelemetryURL != "" {
		tcfg := telemetry.Config{URL: resolved.TelemetryURL}
		if t := model.Telemetry; t != nil {
			tcfg.Namespace, tcfg.Event, tcfg.InsecureSkipVerify = t.Namespace, t.Event, t.InsecureSkipVerify
		}
		sub, err := telemetry.NewSubscriber(tcfg, a.controller, logger)
		if err != nil {
			panic(err)
		}
		a.telemetry = sub
	}

	return a
}

func (a *App) openStore() (kvstore.Store, error) {
	switch a.config.StorageDriver {
	case "badger":
		return badgerstore.Open(
			badgerstore.WithDataDir(a.config.DataDir),
			badgerstore.WithLogger(a.logger),
			badgerstore.WithSyncWrites(a.config.SyncWrites),
		)
	default:
		return inmemorystore.New(inmemorystore.WithQuota(int(a.config.QuotaBytes))), nil
	}
}

// resolve fills unset fields from the configuration model and then from the
// built-in defaults.
func resolve(cfg Config, m *config.Model) Config {
	if s := m.Server; s != nil {
		cfg.ListenAddr = firstNonEmpty(cfg.ListenAddr, s.Address)
		if cfg.HealthcheckPort == 0 {
			cfg.HealthcheckPort = s.HealthcheckPort
		}
	}
	if s := m.Storage; s != nil {
		cfg.StorageDriver = firstNonEmpty(cfg.StorageDriver, s.Driver)
		cfg.DataDir = firstNonEmpty(cfg.DataDir, s.Path)
		cfg.StoragePrefix = firstNonEmpty(cfg.StoragePrefix, s.Prefix)
		if cfg.QuotaBytes == 0 {
			cfg.QuotaBytes = s.QuotaBytes
		}
		cfg.SyncWrites = cfg.SyncWrites || s.SyncWrites
	}
	if r := m.Remote; r != nil {
		cfg.RemoteURL = firstNonEmpty(cfg.RemoteURL, r.BaseURL)
		if cfg.RemoteTimeout == 0 {
			cfg.RemoteTimeout = r.Timeout
		}
	}
	if p := m.Persist; p != nil && cfg.Debounce == 0 {
		cfg.Debounce = p.Debounce
	}
	if t := m.Telemetry; t != nil {
		cfg.TelemetryURL = firstNonEmpty(cfg.TelemetryURL, t.URL)
	}
	if mock := m.MockAPI; mock != nil {
		cfg.MockAPI = cfg.MockAPI || mock.Enabled
		if cfg.MockLatency == 0 {
			cfg.MockLatency = mock.Latency
		}
	}

	cfg.ListenAddr = firstNonEmpty(cfg.ListenAddr, DefaultListenAddr)
	cfg.StorageDriver = firstNonEmpty(cfg.StorageDriver, DefaultStorageDriver)
	cfg.StoragePrefix = firstNonEmpty(cfg.StoragePrefix, snapshotstore.DefaultPrefix)
	if cfg.RemoteTimeout == 0 {
		cfg.RemoteTimeout = DefaultRemoteTimeout
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.RemoteURL == "" {
		// Without a backend, talk to our own mock API.
		cfg.MockAPI = true
		cfg.RemoteURL = selfURL(cfg.ListenAddr)
	}
	return cfg
}

func selfURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "http://" + listenAddr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Controller returns the application's controller.
func (a *App) Controller() *controller.Controller {
	return a.controller
}

// Config returns the resolved configuration.
func (a *App) Config() Config {
	return *a.config
}

// Ready is closed once the HTTP listener is accepting connections.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Addr returns the address the HTTP server listens on, or "" before Ready.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}
