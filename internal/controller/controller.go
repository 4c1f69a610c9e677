package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/remote"
)

// Storage is the slice of the local snapshot store the controller uses.
type Storage interface {
	Save(ctx context.Context, appID graph.ApplicationID, snap *graph.Snapshot) error
	Load(ctx context.Context, appID graph.ApplicationID) (*graph.Snapshot, bool)
	Delete(ctx context.Context, appID graph.ApplicationID) error
	ClearAll(ctx context.Context)
}

// Options tunes a Controller. The zero value is usable.
type Options struct {
	// Debounce is the persistence coalescing window. Zero saves on every
	// mutation.
	Debounce time.Duration
	// Logger receives the controller's logs. Defaults to slog.Default().
	Logger *slog.Logger
	// NewID generates ids for added nodes. Defaults to random UUIDs.
	NewID func() string
}

// Controller owns the live graph of the selected application.
type Controller struct {
	store    Storage
	source   remote.Source
	logger   *slog.Logger
	debounce time.Duration
	newID    func() string

	// baseCtx outlives individual callers so a fetch can finish after the
	// request that started it has returned.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	current    graph.ApplicationID
	state      State
	origin     Origin
	live       *graph.Snapshot
	loaded     map[graph.ApplicationID]bool
	generation uint64
	lastErr    error
	dirty      bool
	timer      *time.Timer
	timerSeq   uint64
	subs       map[int]chan Event
	nextSub    int
	closed     bool
	inflight   sync.WaitGroup
}

// New creates an idle controller.
func New(store Storage, source remote.Source, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		store:      store,
		source:     source,
		logger:     logger.With("component", "controller"),
		debounce:   opts.Debounce,
		newID:      newID,
		baseCtx:    ctx,
		baseCancel: cancel,
		loaded:     make(map[graph.ApplicationID]bool),
		subs:       make(map[int]chan Event),
	}
}

// Select makes appID the displayed application. Pending edits of the outgoing
// application are flushed first. A usable local snapshot hydrates the live
// state before Select returns; otherwise the remote fetch runs in the
// background and the returned Load settles when it commits, fails or is
// superseded. An empty appID returns the controller to Idle.
func (c *Controller) Select(ctx context.Context, appID graph.ApplicationID) *Load {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectLocked(ctx, appID, false)
}

// ClearCache removes the stored snapshot of the current application, drops
// any unsaved edits and reloads it from the remote source.
func (c *Controller) ClearCache(ctx context.Context) (*Load, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.current == "" {
		return nil, ErrNoSelection
	}

	appID := c.current
	c.stopTimerLocked()
	c.dirty = false
	if err := c.store.Delete(ctx, appID); err != nil {
		c.logger.Warn("Failed to delete stored snapshot; refetching anyway.", "app_id", appID, "error", err)
	}
	c.logger.Info("Cleared cached graph.", "app_id", appID)
	c.publishLocked(EventCleared, nil)
	return c.selectLocked(ctx, appID, true), nil
}

// Retry reselects the current application after a failed load.
func (c *Controller) Retry(ctx context.Context) (*Load, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.current == "" {
		return nil, ErrNoSelection
	}
	return c.selectLocked(ctx, c.current, false), nil
}

// ClearAll removes every stored snapshot. The live graph is kept; its next
// edit will write it back.
func (c *Controller) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.ClearAll(ctx)
	c.publishLocked(EventCleared, nil)
}

func (c *Controller) selectLocked(ctx context.Context, appID graph.ApplicationID, forceRemote bool) *Load {
	if c.closed {
		return settled(appID, c.generation, OutcomeFailed, OriginNone, ErrClosed)
	}

	// Outgoing application: persist what the user did, then forget that it
	// was loaded so nothing else can be written for it.
	c.flushLocked(ctx)
	c.stopTimerLocked()
	if c.current != "" {
		delete(c.loaded, c.current)
	}

	c.generation++
	gen := c.generation
	c.current = appID
	c.live = nil
	c.origin = OriginNone
	c.lastErr = nil

	if appID == "" {
		c.state = StateIdle
		c.logger.Debug("Selection cleared.", "generation", gen)
		c.publishLocked(EventSelected, nil)
		return settled(appID, gen, OutcomeIdle, OriginNone, nil)
	}

	c.state = StateResolving
	c.logger.Debug("Resolving graph.", "app_id", appID, "generation", gen, "force_remote", forceRemote)
	c.publishLocked(EventSelected, nil)

	if !forceRemote {
		if snap, ok := c.store.Load(ctx, appID); ok && len(snap.Nodes) > 0 {
			c.hydrateLocked(snap, OriginLocal)
			return settled(appID, gen, OutcomeHydrated, OriginLocal, nil)
		}
	}

	load := newLoad(appID, gen)
	c.inflight.Add(1)
	go c.fetch(load)
	return load
}

// fetch runs without the lock and commits only if its generation is current.
func (c *Controller) fetch(load *Load) {
	defer c.inflight.Done()
	doc, err := c.source.Fetch(c.baseCtx, load.AppID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || load.generation != c.generation {
		c.logger.Debug("Discarding stale fetch result.",
			"app_id", load.AppID, "generation", load.generation, "current_generation", c.generation, "error", err)
		load.finish(OutcomeStale, OriginNone, nil)
		return
	}

	if err != nil {
		var terr *remote.TransportError
		if !errors.As(err, &terr) {
			err = &remote.TransportError{AppID: load.AppID, Err: err}
		}
		c.state = StateFailed
		c.lastErr = err
		c.logger.Error("Failed to load graph.", "app_id", load.AppID, "error", err)
		c.publishLocked(EventFailed, err)
		load.finish(OutcomeFailed, OriginNone, err)
		return
	}

	c.hydrateLocked(graph.FromDocument(load.AppID, doc), OriginRemote)
	// First visit: make the fetched graph durable straight away.
	c.persistLocked(c.baseCtx)
	load.finish(OutcomeHydrated, OriginRemote, nil)
}

func (c *Controller) hydrateLocked(snap *graph.Snapshot, origin Origin) {
	snap.ApplicationID = c.current
	c.live = snap
	c.origin = origin
	c.state = StateHydrated
	c.loaded[c.current] = true
	c.logger.Info("Graph hydrated.", "app_id", c.current, "origin", origin, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	c.publishLocked(EventHydrated, nil)
}

// Current returns the selected application id.
func (c *Controller) Current() graph.ApplicationID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of a Failed state.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Status returns a consistent view of the selection state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		AppID:      c.current,
		State:      c.state,
		Origin:     c.origin,
		Generation: c.generation,
		Err:        c.lastErr,
	}
}

// Snapshot returns a copy of the live graph. The boolean is false unless the
// controller is Hydrated.
func (c *Controller) Snapshot() (*graph.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateHydrated || c.live == nil {
		return nil, false
	}
	return c.live.Clone(), true
}

// Loaded reports the load provenance flag for appID.
func (c *Controller) Loaded(appID graph.ApplicationID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded[appID]
}

// Close flushes pending edits, waits for in-flight fetches and ends all
// subscriptions.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.flushLocked(ctx)
	c.stopTimerLocked()
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.baseCancel()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
