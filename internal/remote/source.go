// Package remote fetches canonical graph documents from the graph API.
//
// The controller only depends on the Source interface. HTTPSource is the real
// implementation; Coalescing wraps any Source so that overlapping requests for
// the same application share one network call.
package remote

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// Source returns the canonical graph document for an application.
type Source interface {
	// Fetch returns the document for appID. Every failure, whether network,
	// status code or payload, is reported as *TransportError.
	Fetch(ctx context.Context, appID graph.ApplicationID) (*graph.Document, error)
}

// TransportError is returned when the graph could not be obtained.
type TransportError struct {
	AppID      graph.ApplicationID
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch graph for %q: status %d: %v", e.AppID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch graph for %q: %v", e.AppID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, appID graph.ApplicationID) (*graph.Document, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, appID graph.ApplicationID) (*graph.Document, error) {
	return f(ctx, appID)
}
