package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specialistvlad/flowkeeper/internal/controller"
	"github.com/specialistvlad/flowkeeper/internal/ctxlog"
	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/sessionapi"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the router serving the mock graph API (when enabled) and
// the session routes.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", a.healthHandler)
	if a.mock != nil {
		a.mock.Mount(r)
	}
	sessionapi.New(a.controller, a.logger,
		sessionapi.WithWaitTimeout(a.config.RemoteTimeout+time.Second),
		sessionapi.WithApps(a.source),
	).Mount(r)
	return r
}

// Run serves until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
	}

	ln, err := net.Listen("tcp", a.config.ListenAddr)
	if err != nil {
		a.shutdown()
		return fmt.Errorf("failed to listen on %s: %w", a.config.ListenAddr, err)
	}
	srv := &http.Server{Handler: a.Handler(), ReadHeaderTimeout: 5 * time.Second}
	a.mu.Lock()
	a.listener = ln
	a.httpServer = srv
	a.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 Flowkeeper listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	close(a.ready)

	if a.telemetry != nil {
		go func() {
			if err := a.telemetry.Run(ctx); err != nil {
				a.logger.Warn("Telemetry feed stopped.", "error", err)
			}
		}()
	}

	if id := a.config.InitialApp; id != "" {
		load := a.controller.Select(ctx, graph.ApplicationID(id))
		go func() {
			outcome, err := load.Wait(ctx)
			if err != nil || outcome == controller.OutcomeFailed {
				a.logger.Warn("Initial application failed to load.", "app_id", id, "outcome", outcome.String(), "error", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested.")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	a.shutdown()
	a.logger.Debug("App.Run method finished.")
	return runErr
}

// shutdown stops the servers, flushes pending edits and closes storage.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.mu.Lock()
	srv := a.httpServer
	a.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("HTTP server shutdown failed", "error", err)
		}
	}
	_ = a.closeHealthCheckServer(ctx)

	if err := a.controller.Close(ctx); err != nil {
		a.logger.Error("Controller did not stop cleanly", "error", err)
	}
	a.source.CloseIdleConnections()
	if err := a.kv.Close(); err != nil {
		a.logger.Error("Failed to close snapshot storage", "error", err)
	}
}
