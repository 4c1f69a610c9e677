package controller

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// Defaults applied to nodes added without explicit attributes.
const (
	DefaultNodeLabel  = "New Service"
	DefaultNodeCPU    = 10
	DefaultNodeMemory = 512
)

// mutate runs fn against the live snapshot and schedules persistence when fn
// reports a change.
func (c *Controller) mutate(ctx context.Context, fn func(s *graph.Snapshot) (bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateHydrated || c.live == nil {
		return ErrNotHydrated
	}
	changed, err := fn(c.live)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	c.markDirtyLocked(ctx)
	c.publishLocked(EventChanged, nil)
	return nil
}

// AddNode appends node to the graph and returns its id. A fresh id is always
// assigned; empty attributes get the defaults of a new service. cpu and memory
// both zero count as unset, so such a node gets the default resources.
func (c *Controller) AddNode(ctx context.Context, node graph.NodeRecord) (string, error) {
	if node.Type == "" {
		node.Type = graph.NodeTypeService
	}
	if !node.Type.Valid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidNode, node.Type)
	}
	if node.Data.Status == "" {
		node.Data.Status = graph.StatusHealthy
	}
	if !node.Data.Status.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidNode, node.Data.Status)
	}
	if node.Data.Label == "" {
		node.Data.Label = DefaultNodeLabel
	}
	if node.Data.CPU == 0 && node.Data.Memory == 0 {
		node.Data.CPU = DefaultNodeCPU
		node.Data.Memory = DefaultNodeMemory
	}
	if !(node.Data.CPU >= 0 && node.Data.CPU <= 100) || !(node.Data.Memory >= 0) || math.IsInf(node.Data.Memory, 1) {
		return "", fmt.Errorf("%w: cpu must be within 0-100 and memory a finite non-negative number", ErrInvalidNode)
	}
	if err := node.Position.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidNode, err)
	}
	node = node.Clone()
	if _, ok := node.Data.Extra["nodeType"]; !ok {
		if node.Data.Extra == nil {
			node.Data.Extra = make(map[string]any)
		}
		node.Data.Extra["nodeType"] = string(node.Type)
	}

	var id string
	err := c.mutate(ctx, func(s *graph.Snapshot) (bool, error) {
		id = "node-" + c.newID()
		for s.HasNode(id) {
			id = "node-" + c.newID()
		}
		node.ID = id
		s.Nodes = append(s.Nodes, node)
		return true, nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Debug("Node added.", "node_id", id)
	return id, nil
}

// MoveNode sets a node's position.
func (c *Controller) MoveNode(ctx context.Context, id string, pos graph.Position) error {
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	return c.mutate(ctx, func(s *graph.Snapshot) (bool, error) {
		i := s.NodeIndex(id)
		if i < 0 {
			return false, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		if s.Nodes[i].Position == pos {
			return false, nil
		}
		s.Nodes[i].Position = pos
		return true, nil
	})
}

// UpdateNodeField merges a single attribute into a node's data.
func (c *Controller) UpdateNodeField(ctx context.Context, id, field string, value any) error {
	return c.UpdateNode(ctx, id, map[string]any{field: value})
}

// UpdateNode merges several attributes into a node's data. Either every field
// is applied or, on the first rejected one, none is.
func (c *Controller) UpdateNode(ctx context.Context, id string, fields map[string]any) error {
	return c.mutate(ctx, func(s *graph.Snapshot) (bool, error) {
		return c.setFieldsLocked(s, id, fields)
	})
}

func (c *Controller) setFieldsLocked(s *graph.Snapshot, id string, fields map[string]any) (bool, error) {
	i := s.NodeIndex(id)
	if i < 0 {
		c.logger.Warn("Ignoring update for unknown node.", "app_id", s.ApplicationID, "node_id", id)
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	data := s.Nodes[i].Data.Clone()
	for _, k := range sortedKeys(fields) {
		if err := data.Set(k, fields[k]); err != nil {
			return false, fmt.Errorf("%w: %w", ErrInvalidField, err)
		}
	}
	s.Nodes[i].Data = data
	return len(fields) > 0, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Connect adds an edge from source to target and returns its id. If the same
// connection already exists its id is returned and nothing changes.
func (c *Controller) Connect(ctx context.Context, source, target string) (string, error) {
	var id string
	err := c.mutate(ctx, func(s *graph.Snapshot) (bool, error) {
		for _, n := range []string{source, target} {
			if !s.HasNode(n) {
				return false, fmt.Errorf("%w: %s", ErrNodeNotFound, n)
			}
		}
		if e, ok := s.FindEdge(source, target); ok {
			id = e.ID
			return false, nil
		}
		id = "e" + source + "-" + target
		if edgeIDTaken(s, id) {
			id = id + "-" + c.newID()
		}
		s.Edges = append(s.Edges, graph.EdgeRecord{ID: id, Source: source, Target: target})
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func edgeIDTaken(s *graph.Snapshot, id string) bool {
	for _, e := range s.Edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

// RemoveSelection deletes the named nodes and edges. Edges attached to a
// removed node go with it. Unknown ids are ignored.
func (c *Controller) RemoveSelection(ctx context.Context, nodeIDs, edgeIDs []string) error {
	return c.mutate(ctx, func(s *graph.Snapshot) (bool, error) {
		dropNode := make(map[string]bool, len(nodeIDs))
		for _, id := range nodeIDs {
			dropNode[id] = true
		}
		dropEdge := make(map[string]bool, len(edgeIDs))
		for _, id := range edgeIDs {
			dropEdge[id] = true
		}

		nodes := s.Nodes[:0]
		for _, n := range s.Nodes {
			if !dropNode[n.ID] {
				nodes = append(nodes, n)
			}
		}
		edges := s.Edges[:0]
		for _, e := range s.Edges {
			if dropEdge[e.ID] || dropNode[e.Source] || dropNode[e.Target] {
				continue
			}
			edges = append(edges, e)
		}
		changed := len(nodes) != len(s.Nodes) || len(edges) != len(s.Edges)
		s.Nodes = nodes
		s.Edges = edges
		return changed, nil
	})
}

// SetViewport records the canvas pan/zoom.
func (c *Controller) SetViewport(ctx context.Context, v graph.Viewport) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidViewport, err)
	}
	return c.mutate(ctx, func(s *graph.Snapshot) (bool, error) {
		if s.Viewport != nil && *s.Viewport == v {
			return false, nil
		}
		s.Viewport = &v
		return true, nil
	})
}

// ApplyTelemetry merges reported attributes into a node. Updates for an
// application other than the hydrated current one return ErrNotCurrent and
// leave all state untouched.
func (c *Controller) ApplyTelemetry(ctx context.Context, appID graph.ApplicationID, nodeID string, fields map[string]any) error {
	return c.mutate(ctx, func(s *graph.Snapshot) (bool, error) {
		if appID != c.current {
			return false, ErrNotCurrent
		}
		return c.setFieldsLocked(s, nodeID, fields)
	})
}
