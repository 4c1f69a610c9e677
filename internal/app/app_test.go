package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/flowkeeper/internal/config"
	"github.com/specialistvlad/flowkeeper/internal/controller"
	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/hcl_adapter"
	"github.com/specialistvlad/flowkeeper/internal/mockapi"
	"github.com/specialistvlad/flowkeeper/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAppTest creates an App against a separate mock graph API.
func setupAppTest(t *testing.T, cfg Config) (*App, *testutil.SafeBuffer) {
	t.Helper()

	api := httptest.NewServer(mockapi.New(nil, testutil.DiscardLogger()).Handler())
	t.Cleanup(api.Close)

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	cfg.ListenAddr = "127.0.0.1:0"
	if cfg.RemoteURL == "" {
		cfg.RemoteURL = api.URL
	}
	a := NewApp(logBuffer, &cfg, hcl_adapter.NewLoader())

	t.Cleanup(func() {
		if os.Getenv("FLOWKEEPER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return a, logBuffer
}

func startApp(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("app did not stop")
		}
	})
	select {
	case <-a.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("app did not start")
	}
}

func TestApp_SelectAndEditOverHTTP(t *testing.T) {
	// Arrange
	a, logs := setupAppTest(t, Config{Debounce: time.Millisecond})
	startApp(t, a)
	base := "http://" + a.Addr()

	// Act
	resp, err := http.Post(base+"/session/select?wait=true", "application/json", strings.NewReader(`{"appId":"app-2"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPut, base+"/session/nodes/a/position", strings.NewReader(`{"x":200,"y":80}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Assert
	require.Eventually(t, func() bool {
		snap, ok := a.snapshots.Load(context.Background(), "app-2")
		return ok && snap.Nodes[snap.NodeIndex("a")].Position == graph.Position{X: 200, Y: 80}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, logs.String(), "Graph hydrated.")
}

func TestApp_HealthReportsControllerState(t *testing.T) {
	a, _ := setupAppTest(t, Config{InitialApp: "app-1"})
	startApp(t, a)

	require.Eventually(t, func() bool { return a.Controller().State() == controller.StateHydrated }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + a.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "app-1", body["app_id"])
	assert.Equal(t, "hydrated", body["state"])
}

func TestApp_ServesMockCatalogFromConfig(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	hcl := `
mock_api {
  enabled = true
}
app "inventory" {
  name = "Inventory"
  node "api" {
    label = "Inventory API"
    cpu   = 15
    extra = { region = "us-east-1" }
  }
  node "db" {
    type = "database"
  }
  edge "eapi-db" {
    source = "api"
    target = "db"
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apps.hcl"), []byte(hcl), 0o600))
	a, _ := setupAppTest(t, Config{ConfigPath: dir})
	startApp(t, a)

	// Act
	resp, err := http.Get("http://" + a.Addr() + "/api/apps/inventory/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc graph.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "Inventory API", doc.Nodes[0].Data.Label)
	assert.Equal(t, "us-east-1", doc.Nodes[0].Data.Extra["region"])
	assert.Equal(t, graph.NodeTypeDatabase, doc.Nodes[1].Type)
	assert.Equal(t, "db", doc.Nodes[1].Data.Label)
	require.Len(t, doc.Edges, 1)
}

func TestApp_BadgerStorageSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{StorageDriver: "badger", DataDir: dir, Debounce: time.Millisecond}

	first, _ := setupAppTest(t, cfg)
	ctx := context.Background()
	_, err := first.Controller().Select(ctx, "app-3").Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Controller().MoveNode(ctx, "r1", graph.Position{X: 7, Y: 7}))
	first.shutdown()

	second, _ := setupAppTest(t, cfg)
	defer second.shutdown()
	load := second.Controller().Select(ctx, "app-3")
	outcome, err := load.Wait(ctx)

	require.NoError(t, err)
	assert.Equal(t, controller.OutcomeHydrated, outcome)
	assert.Equal(t, controller.OriginLocal, load.Origin())
	snap, _ := second.Controller().Snapshot()
	assert.Equal(t, graph.Position{X: 7, Y: 7}, snap.Nodes[0].Position)
}

func TestNewApp_PanicsOnInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(`remote {`), 0o600))

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		NewApp(&bytes.Buffer{}, &Config{ConfigPath: dir}, hcl_adapter.NewLoader())
	}()

	require.NotNil(t, recovered)
	err, ok := recovered.(error)
	require.True(t, ok)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestResolve(t *testing.T) {
	model := &config.Model{
		Server:  &config.Server{Address: ":9000", HealthcheckPort: 9001},
		Storage: &config.Storage{Driver: "badger", Path: "/data"},
		Remote:  &config.Remote{BaseURL: "http://graph", Timeout: 2 * time.Second},
		Persist: &config.Persist{Debounce: time.Second},
	}

	t.Run("model fills unset fields", func(t *testing.T) {
		got := resolve(Config{}, model)
		assert.Equal(t, ":9000", got.ListenAddr)
		assert.Equal(t, 9001, got.HealthcheckPort)
		assert.Equal(t, "badger", got.StorageDriver)
		assert.Equal(t, "/data", got.DataDir)
		assert.Equal(t, "http://graph", got.RemoteURL)
		assert.Equal(t, 2*time.Second, got.RemoteTimeout)
		assert.Equal(t, time.Second, got.Debounce)
		assert.Equal(t, "ainyx_flow_", got.StoragePrefix)
		assert.False(t, got.MockAPI)
	})

	t.Run("explicit values win", func(t *testing.T) {
		got := resolve(Config{ListenAddr: ":1", RemoteURL: "http://other", Debounce: time.Millisecond}, model)
		assert.Equal(t, ":1", got.ListenAddr)
		assert.Equal(t, "http://other", got.RemoteURL)
		assert.Equal(t, time.Millisecond, got.Debounce)
	})

	t.Run("no backend falls back to the built-in api", func(t *testing.T) {
		got := resolve(Config{}, &config.Model{})
		assert.True(t, got.MockAPI)
		assert.Equal(t, "http://127.0.0.1:8080", got.RemoteURL)
		assert.Equal(t, DefaultStorageDriver, got.StorageDriver)
		assert.Equal(t, DefaultDebounce, got.Debounce)
	})
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "zero is valid", cfg: Config{}},
		{name: "bad format", cfg: Config{LogFormat: "xml"}, wantErr: "log format"},
		{name: "bad level", cfg: Config{LogLevel: "trace"}, wantErr: "log level"},
		{name: "bad driver", cfg: Config{StorageDriver: "redis"}, wantErr: "storage driver"},
		{name: "bad port", cfg: Config{HealthcheckPort: 70000}, wantErr: "healthcheck port"},
		{name: "bad remote", cfg: Config{RemoteURL: "not a url"}, wantErr: "remote url"},
		{name: "negative duration", cfg: Config{Debounce: -time.Second}, wantErr: "negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCatalogFromModel_RejectsDanglingEdge(t *testing.T) {
	_, err := catalogFromModel([]*config.App{{
		ID:    "x",
		Nodes: []*config.Node{{ID: "a"}},
		Edges: []*config.Edge{{ID: "e", Source: "a", Target: "missing"}},
	}})
	assert.ErrorContains(t, err, "unknown node")
}
