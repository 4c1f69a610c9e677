package telemetry

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the event name metrics arrive on.
const DefaultEvent = "node_metrics"

// Config describes the socket.io endpoint.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// Subscriber streams telemetry events into an Applier.
type Subscriber struct {
	cfg     Config
	applier Applier
	logger  *slog.Logger

	applied  atomic.Int64
	rejected atomic.Int64
}

// NewSubscriber validates cfg and returns an unconnected Subscriber.
func NewSubscriber(cfg Config, applier Applier, logger *slog.Logger) (*Subscriber, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing telemetry url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("telemetry url %q: unsupported scheme", cfg.URL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("telemetry url %q: missing host", cfg.URL)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}
	if cfg.Event == "" {
		cfg.Event = DefaultEvent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		cfg:     cfg,
		applier: applier,
		logger:  logger.With("component", "telemetry", "url", cfg.URL, "event", cfg.Event),
	}, nil
}

// Run connects and applies events until ctx ends. Connection errors are
// logged; the client keeps reconnecting on its own.
func (s *Subscriber) Run(ctx context.Context) error {
	u, _ := url.Parse(s.cfg.URL)
	scheme := u.Scheme
	switch scheme {
	case "ws":
		scheme = "http"
	case "wss":
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, u.Host)

	opts := socket.DefaultOptions()
	if u.Path != "" && u.Path != "/" {
		opts.SetPath(u.Path)
	}
	if s.cfg.InsecureSkipVerify {
		s.logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(s.cfg.Namespace, opts)
	defer func() {
		s.logger.Debug("Disconnecting telemetry client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		s.logger.Info("Telemetry connected", "namespace", s.cfg.Namespace, "sid", io.Id())
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		var err error
		if len(errs) > 0 {
			err, _ = errs[0].(error)
		}
		s.logger.Warn("Telemetry connection failed", "error", err)
	})
	io.On(types.EventName(s.cfg.Event), func(data ...any) {
		for _, payload := range data {
			s.Handle(ctx, payload)
		}
	})

	io.Connect()
	<-ctx.Done()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// Handle decodes and applies one event payload.
func (s *Subscriber) Handle(ctx context.Context, payload any) {
	u, err := Decode(payload)
	if err != nil {
		s.rejected.Add(1)
		s.logger.Warn("Ignoring malformed telemetry event.", "error", err)
		return
	}
	if err := Apply(ctx, s.applier, s.logger, u); err != nil {
		s.rejected.Add(1)
		return
	}
	s.applied.Add(1)
}

// Stats returns how many events were handed to the applier and how many were
// rejected.
func (s *Subscriber) Stats() (applied, rejected int64) {
	return s.applied.Load(), s.rejected.Load()
}
