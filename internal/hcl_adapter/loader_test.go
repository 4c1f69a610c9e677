package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/flowkeeper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_AllBlocks(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeFile(t, dir, "10-settings.hcl", `
server {
  address          = ":9090"
  healthcheck_port = 9091
}
storage {
  driver      = "badger"
  path        = "/var/lib/flowkeeper"
  quota_bytes = 5242880
}
remote {
  base_url = "http://graph.internal"
  timeout  = "3s"
}
persist {
  debounce = "250ms"
}
telemetry {
  url   = "http://metrics.internal:4000"
  event = "node_metrics"
}
mock_api {
  latency = "300ms"
}
`)
	writeFile(t, dir, "20-apps.hcl", `
app "app-9" {
  name   = "Queue"
  status = "degraded"
  node "q" {
    type   = "service"
    x      = 10
    y      = 20
    label  = "Broker"
    status = "healthy"
    cpu    = 40
    memory = 1024
    extra  = { region = "eu", replicas = 3, tags = ["a", "b"] }
  }
  node "w" {
    label = "Worker"
  }
  edge "eq-w" {
    source   = "q"
    target   = "w"
    animated = true
  }
}
`)
	writeFile(t, dir, "notes.txt", "ignored")

	// Act
	model, err := NewLoader().Load(context.Background(), dir)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &config.Server{Address: ":9090", HealthcheckPort: 9091}, model.Server)
	assert.Equal(t, "badger", model.Storage.Driver)
	assert.Equal(t, int64(5242880), model.Storage.QuotaBytes)
	assert.Equal(t, 3*time.Second, model.Remote.Timeout)
	assert.Equal(t, 250*time.Millisecond, model.Persist.Debounce)
	assert.Equal(t, "http://metrics.internal:4000", model.Telemetry.URL)
	assert.Equal(t, &config.MockAPI{Enabled: true, Latency: 300 * time.Millisecond}, model.MockAPI)

	require.Len(t, model.Apps, 1)
	app := model.Apps[0]
	assert.Equal(t, "app-9", app.ID)
	require.Len(t, app.Nodes, 2)
	q := app.Nodes[0]
	assert.Equal(t, 40.0, q.CPU)
	assert.Equal(t, map[string]any{"region": "eu", "replicas": 3.0, "tags": []any{"a", "b"}}, q.Extra)
	assert.Nil(t, app.Nodes[1].Extra)
	assert.Equal(t, []*config.Edge{{ID: "eq-w", Source: "q", Target: "w", Animated: true}}, app.Edges)
}

func TestLoad_MissingPathIsEmpty(t *testing.T) {
	model, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, model.Remote)
	assert.Empty(t, model.Apps)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", `remote {`, "failed to parse"},
		{"unknown attribute", `persist { every = "1s" }`, "failed to decode"},
		{"bad duration", `persist { debounce = "soon" }`, "persist.debounce"},
		{"extra not an object", `app "x" {
  node "n" {
    extra = "flat"
  }
}`, "extra must be an object"},
		{"duplicate app", `app "x" {}
app "x" {}`, "defined more than once"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "main.hcl", tc.content)

			_, err := NewLoader().Load(context.Background(), path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
