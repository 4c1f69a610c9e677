package mockapi

import (
	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// Catalog is the data the API serves: the application list and one graph
// document per application.
type Catalog struct {
	Apps   []graph.Application
	Graphs map[graph.ApplicationID]*graph.Document
}

// Graph returns the document for id. Unknown applications get an empty graph.
func (c *Catalog) Graph(id graph.ApplicationID) *graph.Document {
	if doc, ok := c.Graphs[id]; ok && doc != nil {
		return doc
	}
	return &graph.Document{Nodes: []graph.NodeRecord{}, Edges: []graph.EdgeRecord{}}
}

func node(id string, typ graph.NodeType, x, y float64, label string, status graph.Status, cpu, mem float64) graph.NodeRecord {
	return graph.NodeRecord{
		ID:       id,
		Type:     typ,
		Position: graph.Position{X: x, Y: y},
		Data: graph.NodeData{
			Label:  label,
			Status: status,
			CPU:    cpu,
			Memory: mem,
			Extra:  map[string]any{"nodeType": string(typ)},
		},
	}
}

// DefaultCatalog returns the three demo applications.
func DefaultCatalog() *Catalog {
	svc, db := graph.NodeTypeService, graph.NodeTypeDatabase
	ok, warn := graph.StatusHealthy, graph.StatusDegraded

	return &Catalog{
		Apps: []graph.Application{
			{ID: "app-1", Name: "SuperTokens Golang", Status: ok, Icon: "golang"},
			{ID: "app-2", Name: "Postgres Cluster", Status: ok, Icon: "db"},
			{ID: "app-3", Name: "Redis Cache", Status: warn, Icon: "redis"},
		},
		Graphs: map[graph.ApplicationID]*graph.Document{
			"app-1": {
				Nodes: []graph.NodeRecord{
					node("1", svc, 50, 50, "Auth Service", ok, 12, 512),
					node("2", svc, 300, 150, "User API", ok, 45, 256),
					node("3", svc, 150, 300, "Audit Log", warn, 88, 1024),
					node("4", svc, 500, 50, "Notification", ok, 5, 128),
				},
				Edges: []graph.EdgeRecord{
					{ID: "e1-2", Source: "1", Target: "2", Animated: true},
					{ID: "e2-3", Source: "2", Target: "3"},
					{ID: "e2-4", Source: "2", Target: "4", Animated: true},
				},
			},
			"app-2": {
				Nodes: []graph.NodeRecord{
					node("a", db, 100, 100, "Primary DB", ok, 60, 4096),
					node("b", db, 400, 100, "Replica 1", ok, 20, 2048),
					node("c", db, 400, 300, "Replica 2", ok, 22, 2048),
				},
				Edges: []graph.EdgeRecord{
					{ID: "ea-b", Source: "a", Target: "b", Animated: true},
					{ID: "ea-c", Source: "a", Target: "c", Animated: true},
				},
			},
			"app-3": {
				Nodes: []graph.NodeRecord{
					node("r1", db, 250, 250, "Redis Master", warn, 95, 64),
				},
				Edges: []graph.EdgeRecord{},
			},
		},
	}
}
