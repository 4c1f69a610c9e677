package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/remote"
)

// Response is what a StubSource answers for one application.
type Response struct {
	Doc *graph.Document
	Err error
	// Gate, when set, holds the fetch until it is closed.
	Gate chan struct{}
}

// StubSource is a remote.Source answering from a fixed table. Unknown
// applications get an empty document.
type StubSource struct {
	mu        sync.Mutex
	responses map[graph.ApplicationID]Response
	calls     map[graph.ApplicationID]int
	started   chan graph.ApplicationID
}

var _ remote.Source = (*StubSource)(nil)

// NewStubSource creates an empty StubSource.
func NewStubSource() *StubSource {
	return &StubSource{
		responses: make(map[graph.ApplicationID]Response),
		calls:     make(map[graph.ApplicationID]int),
		started:   make(chan graph.ApplicationID, 64),
	}
}

// Set replaces the response for appID.
func (s *StubSource) Set(appID graph.ApplicationID, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[appID] = r
}

// Calls returns how many fetches appID has received.
func (s *StubSource) Calls(appID graph.ApplicationID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[appID]
}

// Started receives the id of every fetch as it begins.
func (s *StubSource) Started() <-chan graph.ApplicationID {
	return s.started
}

// Fetch implements remote.Source.
func (s *StubSource) Fetch(ctx context.Context, appID graph.ApplicationID) (*graph.Document, error) {
	s.mu.Lock()
	s.calls[appID]++
	r := s.responses[appID]
	s.mu.Unlock()

	select {
	case s.started <- appID:
	default:
	}

	if r.Gate != nil {
		select {
		case <-r.Gate:
		case <-ctx.Done():
			return nil, &remote.TransportError{AppID: appID, Err: ctx.Err()}
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Doc == nil {
		return &graph.Document{Nodes: []graph.NodeRecord{}, Edges: []graph.EdgeRecord{}}, nil
	}
	doc := graph.FromDocument(appID, r.Doc)
	return &graph.Document{Nodes: doc.Nodes, Edges: doc.Edges}, nil
}
