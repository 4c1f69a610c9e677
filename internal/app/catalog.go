package app

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/flowkeeper/internal/config"
	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/mockapi"
)

// catalogFromModel builds the mock API catalog from configured app blocks.
// With no app blocks the built-in catalog is used.
func catalogFromModel(apps []*config.App) (*mockapi.Catalog, error) {
	if len(apps) == 0 {
		return mockapi.DefaultCatalog(), nil
	}

	catalog := &mockapi.Catalog{Graphs: make(map[graph.ApplicationID]*graph.Document, len(apps))}
	for _, a := range apps {
		status := graph.Status(a.Status)
		if status == "" {
			status = graph.StatusHealthy
		}
		if !status.Valid() {
			return nil, fmt.Errorf("app %q: unknown status %q", a.ID, a.Status)
		}
		id := graph.ApplicationID(a.ID)
		name := a.Name
		if name == "" {
			name = a.ID
		}
		catalog.Apps = append(catalog.Apps, graph.Application{ID: id, Name: name, Status: status, Icon: a.Icon})

		doc, err := documentFromApp(a)
		if err != nil {
			return nil, fmt.Errorf("app %q: %w", a.ID, err)
		}
		catalog.Graphs[id] = doc
	}
	return catalog, nil
}

func documentFromApp(a *config.App) (*graph.Document, error) {
	doc := &graph.Document{Nodes: []graph.NodeRecord{}, Edges: []graph.EdgeRecord{}}
	for _, n := range a.Nodes {
		typ := graph.NodeType(n.Type)
		if typ == "" {
			typ = graph.NodeTypeService
		}
		data := graph.NodeData{Label: n.Label, Status: graph.StatusHealthy}
		if data.Label == "" {
			data.Label = n.ID
		}
		if n.Status != "" {
			data.Status = graph.Status(n.Status)
		}
		if err := data.Set(graph.FieldCPU, n.CPU); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		if err := data.Set(graph.FieldMemory, n.Memory); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		for k, v := range n.Extra {
			if err := data.Set(k, v); err != nil {
				return nil, fmt.Errorf("node %q: %w", n.ID, err)
			}
		}
		doc.Nodes = append(doc.Nodes, graph.NodeRecord{
			ID:       n.ID,
			Type:     typ,
			Position: graph.Position{X: n.X, Y: n.Y},
			Data:     data,
		})
	}

	snap := &graph.Snapshot{Nodes: doc.Nodes}
	for _, e := range a.Edges {
		if !snap.HasNode(e.Source) || !snap.HasNode(e.Target) {
			return nil, fmt.Errorf("edge %q references an unknown node", e.ID)
		}
		doc.Edges = append(doc.Edges, graph.EdgeRecord{ID: e.ID, Source: e.Source, Target: e.Target, Animated: e.Animated})
	}

	// The document must be servable as-is.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := graph.ValidateDocumentJSON(raw); err != nil {
		return nil, err
	}
	return doc, nil
}
