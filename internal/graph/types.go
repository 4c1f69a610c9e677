package graph

import (
	"fmt"
	"math"
)

// ApplicationID identifies one monitored application. It is the primary key
// for persisted snapshots.
type ApplicationID string

// NodeType is the kind of runtime component a node represents.
type NodeType string

const (
	NodeTypeService  NodeType = "service"
	NodeTypeDatabase NodeType = "database"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	return t == NodeTypeService || t == NodeTypeDatabase
}

// Status is the health reported for a node.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusHealthy, StatusDegraded, StatusDown:
		return true
	}
	return false
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Position is a node's location in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Validate rejects coordinates that cannot be serialized.
func (p Position) Validate() error {
	if !finite(p.X) || !finite(p.Y) {
		return fmt.Errorf("position must be finite, got (%v, %v)", p.X, p.Y)
	}
	return nil
}

// NodeRecord is one vertex of the graph. Its ID is unique within a graph and
// the order of nodes in a Snapshot is the rendering z-order.
type NodeRecord struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// EdgeRecord connects two nodes of the same graph.
type EdgeRecord struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Animated bool   `json:"animated,omitempty"`
}

// Viewport is the pan/zoom state of the canvas.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Validate checks the zoom invariant. All components must be finite.
func (v Viewport) Validate() error {
	if !finite(v.X) || !finite(v.Y) {
		return fmt.Errorf("viewport offset must be finite, got (%v, %v)", v.X, v.Y)
	}
	if !finite(v.Zoom) || v.Zoom <= 0 {
		return fmt.Errorf("viewport zoom must be positive, got %v", v.Zoom)
	}
	return nil
}

// Document is the graph as served by the remote graph endpoint.
type Document struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// Snapshot is the full state of one application's graph. ApplicationID must
// equal the key the snapshot is stored under.
type Snapshot struct {
	ApplicationID ApplicationID `json:"appId"`
	Nodes         []NodeRecord  `json:"nodes"`
	Edges         []EdgeRecord  `json:"edges"`
	Viewport      *Viewport     `json:"viewport,omitempty"`
}

// FromDocument builds a Snapshot owned by id out of a remote document. The
// result does not share memory with doc.
func FromDocument(id ApplicationID, doc *Document) *Snapshot {
	s := &Snapshot{ApplicationID: id, Nodes: []NodeRecord{}, Edges: []EdgeRecord{}}
	if doc == nil {
		return s
	}
	s.Nodes = cloneNodes(doc.Nodes)
	s.Edges = cloneEdges(doc.Edges)
	return s
}

// NodeIndex returns the position of the node with the given id, or -1.
func (s *Snapshot) NodeIndex(id string) int {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// HasNode reports whether a node with the given id exists.
func (s *Snapshot) HasNode(id string) bool {
	return s.NodeIndex(id) >= 0
}

// FindEdge returns the first edge going from source to target.
func (s *Snapshot) FindEdge(source, target string) (EdgeRecord, bool) {
	for _, e := range s.Edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return EdgeRecord{}, false
}

// Application is one entry of the application list endpoint.
type Application struct {
	ID     ApplicationID `json:"id"`
	Name   string        `json:"name"`
	Status Status        `json:"status"`
	Icon   string        `json:"icon,omitempty"`
}

// finite reports whether f survives a JSON round trip.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
