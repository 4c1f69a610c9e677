package hcl_adapter

import (
	"fmt"
	"time"

	"github.com/specialistvlad/flowkeeper/internal/config"
)

func parseDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

// translateRoot converts one decoded file into a config.Model.
func translateRoot(root *fileRoot) (*config.Model, error) {
	m := &config.Model{}

	if b := root.Server; b != nil {
		m.Server = &config.Server{Address: b.Address, HealthcheckPort: b.HealthcheckPort}
	}
	if b := root.Storage; b != nil {
		m.Storage = &config.Storage{
			Driver:     b.Driver,
			Path:       b.Path,
			Prefix:     b.Prefix,
			QuotaBytes: b.QuotaBytes,
			SyncWrites: b.SyncWrites,
		}
	}
	if b := root.Remote; b != nil {
		timeout, err := parseDuration("remote.timeout", b.Timeout)
		if err != nil {
			return nil, err
		}
		m.Remote = &config.Remote{BaseURL: b.BaseURL, Timeout: timeout}
	}
	if b := root.Persist; b != nil {
		debounce, err := parseDuration("persist.debounce", b.Debounce)
		if err != nil {
			return nil, err
		}
		m.Persist = &config.Persist{Debounce: debounce}
	}
	if b := root.Telemetry; b != nil {
		m.Telemetry = &config.Telemetry{
			URL:                b.URL,
			Namespace:          b.Namespace,
			Event:              b.Event,
			InsecureSkipVerify: b.InsecureSkipVerify,
		}
	}
	if b := root.MockAPI; b != nil {
		latency, err := parseDuration("mock_api.latency", b.Latency)
		if err != nil {
			return nil, err
		}
		enabled := true
		if b.Enabled != nil {
			enabled = *b.Enabled
		}
		m.MockAPI = &config.MockAPI{Enabled: enabled, Latency: latency}
	}

	for _, a := range root.Apps {
		app, err := translateApp(a)
		if err != nil {
			return nil, fmt.Errorf("app %q: %w", a.ID, err)
		}
		m.Apps = append(m.Apps, app)
	}
	return m, nil
}

func translateApp(b *appBlock) (*config.App, error) {
	app := &config.App{ID: b.ID, Name: b.Name, Status: b.Status, Icon: b.Icon}
	for _, n := range b.Nodes {
		extra, err := extraFields(n.Extra)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		app.Nodes = append(app.Nodes, &config.Node{
			ID:     n.ID,
			Type:   n.Type,
			X:      n.X,
			Y:      n.Y,
			Label:  n.Label,
			Status: n.Status,
			CPU:    n.CPU,
			Memory: n.Memory,
			Extra:  extra,
		})
	}
	for _, e := range b.Edges {
		app.Edges = append(app.Edges, &config.Edge{ID: e.ID, Source: e.Source, Target: e.Target, Animated: e.Animated})
	}
	return app, nil
}
