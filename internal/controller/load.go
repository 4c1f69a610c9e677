package controller

import (
	"context"

	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// Outcome is how a load settled.
type Outcome int

const (
	// OutcomePending means the load has not settled yet.
	OutcomePending Outcome = iota
	// OutcomeHydrated means the snapshot is now live.
	OutcomeHydrated
	// OutcomeFailed means the remote fetch failed; the error is available.
	OutcomeFailed
	// OutcomeStale means another selection superseded this one and the
	// result was discarded.
	OutcomeStale
	// OutcomeIdle means the selection was cleared.
	OutcomeIdle
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeHydrated:
		return "hydrated"
	case OutcomeFailed:
		return "failed"
	case OutcomeStale:
		return "stale"
	case OutcomeIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Load tracks one selection until it settles.
type Load struct {
	AppID      graph.ApplicationID
	generation uint64
	done       chan struct{}
	outcome    Outcome
	origin     Origin
	err        error
}

func newLoad(appID graph.ApplicationID, gen uint64) *Load {
	return &Load{AppID: appID, generation: gen, done: make(chan struct{})}
}

// settled returns a Load that has already finished.
func settled(appID graph.ApplicationID, gen uint64, outcome Outcome, origin Origin, err error) *Load {
	l := newLoad(appID, gen)
	l.finish(outcome, origin, err)
	return l
}

// finish must be called exactly once.
func (l *Load) finish(outcome Outcome, origin Origin, err error) {
	l.outcome = outcome
	l.origin = origin
	l.err = err
	close(l.done)
}

// Done is closed once the load has settled.
func (l *Load) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the load settles or ctx ends.
func (l *Load) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-l.done:
		return l.outcome, l.err
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// Origin reports where the snapshot came from. Valid once settled.
func (l *Load) Origin() Origin {
	select {
	case <-l.done:
		return l.origin
	default:
		return OriginNone
	}
}

// Generation is the selection generation this load belongs to.
func (l *Load) Generation() uint64 {
	return l.generation
}
