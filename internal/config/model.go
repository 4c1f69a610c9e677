package config

import (
	"fmt"
	"time"
)

// Model is the merged configuration. Nil sections were not present in any
// file.
type Model struct {
	Server    *Server
	Storage   *Storage
	Remote    *Remote
	Persist   *Persist
	Telemetry *Telemetry
	MockAPI   *MockAPI
	Apps      []*App
}

// Server configures the HTTP listeners.
type Server struct {
	Address         string
	HealthcheckPort int
}

// Storage selects the key-value backend for snapshots.
type Storage struct {
	Driver     string // "memory" or "badger"
	Path       string
	Prefix     string
	QuotaBytes int64
	SyncWrites bool
}

// Remote points at the graph API.
type Remote struct {
	BaseURL string
	Timeout time.Duration
}

// Persist tunes snapshot persistence.
type Persist struct {
	Debounce time.Duration
}

// Telemetry configures the optional socket.io metrics feed.
type Telemetry struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// MockAPI configures the built-in graph API.
type MockAPI struct {
	Enabled bool
	Latency time.Duration
}

// App is one catalog entry together with its graph.
type App struct {
	ID     string
	Name   string
	Status string
	Icon   string
	Nodes  []*Node
	Edges  []*Edge
}

// Node is one graph node of a catalog application.
type Node struct {
	ID     string
	Type   string
	X, Y   float64
	Label  string
	Status string
	CPU    float64
	Memory float64
	Extra  map[string]any
}

// Edge is one graph edge of a catalog application.
type Edge struct {
	ID       string
	Source   string
	Target   string
	Animated bool
}

// Merge folds other into m. Sections present in other replace those in m and
// apps are appended; an app id defined twice is an error.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	if other.Server != nil {
		m.Server = other.Server
	}
	if other.Storage != nil {
		m.Storage = other.Storage
	}
	if other.Remote != nil {
		m.Remote = other.Remote
	}
	if other.Persist != nil {
		m.Persist = other.Persist
	}
	if other.Telemetry != nil {
		m.Telemetry = other.Telemetry
	}
	if other.MockAPI != nil {
		m.MockAPI = other.MockAPI
	}
	seen := make(map[string]bool, len(m.Apps))
	for _, a := range m.Apps {
		seen[a.ID] = true
	}
	for _, a := range other.Apps {
		if seen[a.ID] {
			return fmt.Errorf("app %q is defined more than once", a.ID)
		}
		seen[a.ID] = true
		m.Apps = append(m.Apps, a)
	}
	return nil
}
