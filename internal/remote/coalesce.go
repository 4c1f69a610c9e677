package remote

import (
	"context"

	"github.com/specialistvlad/flowkeeper/internal/graph"
	"golang.org/x/sync/singleflight"
)

// Coalescing shares one in-flight fetch between concurrent callers asking for
// the same application, e.g. when the user flips A -> B -> A before A's first
// request has returned. Each caller receives its own copy of the document.
type Coalescing struct {
	next  Source
	group singleflight.Group
}

// NewCoalescing wraps next.
func NewCoalescing(next Source) *Coalescing {
	return &Coalescing{next: next}
}

// Fetch returns the shared result for appID. The shared request is not tied to
// any single caller's cancellation; a caller whose ctx ends stops waiting.
func (c *Coalescing) Fetch(ctx context.Context, appID graph.ApplicationID) (*graph.Document, error) {
	ch := c.group.DoChan(string(appID), func() (any, error) {
		return c.next.Fetch(context.WithoutCancel(ctx), appID)
	})
	select {
	case <-ctx.Done():
		return nil, &TransportError{AppID: appID, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		doc := res.Val.(*graph.Document)
		snap := graph.FromDocument(appID, doc)
		return &graph.Document{Nodes: snap.Nodes, Edges: snap.Edges}, nil
	}
}
