package snapshotstore

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/inmemorystore"
	"github.com/specialistvlad/flowkeeper/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...inmemorystore.Option) (*Store, *inmemorystore.Store, *bytes.Buffer) {
	t.Helper()
	kv := inmemorystore.New(opts...)
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(kv, "", logger), kv, logs
}

func sampleSnapshot(appID graph.ApplicationID) *graph.Snapshot {
	return &graph.Snapshot{
		ApplicationID: appID,
		Nodes: []graph.NodeRecord{
			{ID: "a", Type: graph.NodeTypeDatabase, Position: graph.Position{X: 100, Y: 100},
				Data: graph.NodeData{Label: "Primary DB", Status: graph.StatusHealthy, CPU: 60, Memory: 4096, Extra: map[string]any{"nodeType": "database"}}},
			{ID: "b", Type: graph.NodeTypeDatabase, Position: graph.Position{X: 400, Y: 100},
				Data: graph.NodeData{Label: "Replica 1", Status: graph.StatusHealthy, CPU: 20, Memory: 2048}},
		},
		Edges:    []graph.EdgeRecord{{ID: "ea-b", Source: "a", Target: "b", Animated: true}},
		Viewport: &graph.Viewport{X: -20, Y: 15, Zoom: 1.25},
	}
}

func TestKeyIsPrefixedAppID(t *testing.T) {
	s, _, _ := newStore(t)
	assert.Equal(t, "ainyx_flow_app-2", s.Key("app-2"))
	assert.Equal(t, DefaultPrefix, s.Prefix())

	custom := New(inmemorystore.New(), "custom:", nil)
	assert.Equal(t, "custom:app-2", custom.Key("app-2"))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	want := sampleSnapshot("app-2")

	require.NoError(t, s.Save(ctx, "app-2", want))

	got, ok := s.Load(ctx, "app-2")
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("loaded snapshot differs (-want +got):\n%s", diff)
	}
}

func TestSave_StampsOwner(t *testing.T) {
	s, kv, _ := newStore(t)
	ctx := context.Background()

	snap := sampleSnapshot("")
	require.NoError(t, s.Save(ctx, "app-1", snap))
	assert.Equal(t, graph.ApplicationID(""), snap.ApplicationID, "caller's snapshot is not modified")

	raw, ok, err := kv.Get(ctx, "ainyx_flow_app-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"appId":"app-1"`)
}

func TestLoad_OwnershipIsolation(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "app-1", sampleSnapshot("app-1")))

	got, ok := s.Load(ctx, "app-2")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestLoad_MisownedRecordIsPurged(t *testing.T) {
	s, kv, logs := newStore(t)
	ctx := context.Background()

	// A record for app-1 written under app-2's key.
	raw := `{"appId":"app-1","nodes":[{"id":"x","type":"service","position":{"x":0,"y":0},"data":{"label":"x"}}],"edges":[]}`
	require.NoError(t, kv.Set(ctx, s.Key("app-2"), []byte(raw)))

	_, ok := s.Load(ctx, "app-2")
	assert.False(t, ok)

	_, present, err := kv.Get(ctx, s.Key("app-2"))
	require.NoError(t, err)
	assert.False(t, present, "the foreign record must be deleted")
	assert.Contains(t, logs.String(), "Discarding corrupt snapshot.")
	assert.Contains(t, logs.String(), `owned by \"app-1\"`)
}

func TestLoad_MalformedRecordIsPurged(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"appId":"app-2","nodes":[`,
		"missing appId":   `{"nodes":[],"edges":[]}`,
		"wrong shape":     `{"appId":"app-2","nodes":"many","edges":[]}`,
		"bad node status": `{"appId":"app-2","nodes":[{"id":"a","position":{"x":0,"y":0},"data":{"status":"on fire"}}],"edges":[]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			s, kv, _ := newStore(t)
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, s.Key("app-2"), []byte(raw)))

			_, ok := s.Load(ctx, "app-2")
			assert.False(t, ok)

			_, ok = s.Load(ctx, "app-2")
			assert.False(t, ok)
			_, present, _ := kv.Get(ctx, s.Key("app-2"))
			assert.False(t, present)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	s, _, _ := newStore(t)
	_, ok := s.Load(context.Background(), "never-saved")
	assert.False(t, ok)
}

func TestSave_QuotaFailureIsNonFatal(t *testing.T) {
	s, _, logs := newStore(t, inmemorystore.WithQuota(16))
	ctx := context.Background()

	snap := sampleSnapshot("app-2")
	before := snap.Clone()

	err := s.Save(ctx, "app-2", snap)
	require.Error(t, err)

	var serr *StorageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "save", serr.Op)
	assert.Equal(t, graph.ApplicationID("app-2"), serr.AppID)
	assert.ErrorIs(t, err, kvstore.ErrQuotaExceeded)
	assert.Contains(t, logs.String(), "Snapshot storage failure.")

	if diff := cmp.Diff(before, snap); diff != "" {
		t.Fatalf("snapshot mutated by failed save:\n%s", diff)
	}
	_, ok := s.Load(ctx, "app-2")
	assert.False(t, ok)
}

func TestSave_NilSnapshot(t *testing.T) {
	s, _, _ := newStore(t)
	var serr *StorageError
	assert.ErrorAs(t, s.Save(context.Background(), "app-1", nil), &serr)
}

func TestClearAll_IsNamespaceScoped(t *testing.T) {
	s, kv, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "app-1", sampleSnapshot("app-1")))
	require.NoError(t, s.Save(ctx, "app-2", sampleSnapshot("app-2")))
	require.NoError(t, kv.Set(ctx, "theme", []byte("dark")))

	ids, err := s.Applications(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []graph.ApplicationID{"app-1", "app-2"}, ids)

	s.ClearAll(ctx)

	ids, err = s.Applications(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	v, ok, err := kv.Get(ctx, "theme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dark", string(v))
}

func TestDelete(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "app-3", sampleSnapshot("app-3")))
	require.NoError(t, s.Delete(ctx, "app-3"))

	_, ok := s.Load(ctx, "app-3")
	assert.False(t, ok)
}
