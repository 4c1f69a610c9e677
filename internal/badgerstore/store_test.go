package badgerstore

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/specialistvlad/flowkeeper/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGetDelete(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "ainyx_flow_app-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "ainyx_flow_app-1", []byte(`{"appId":"app-1"}`)))
	v, ok, err := s.Get(ctx, "ainyx_flow_app-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"appId":"app-1"}`, string(v))

	require.NoError(t, s.Delete(ctx, "ainyx_flow_app-1"))
	_, ok, err = s.Get(ctx, "ainyx_flow_app-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_KeysIsPrefixScoped(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ainyx_flow_app-1", []byte("1")))
	require.NoError(t, s.Set(ctx, "ainyx_flow_app-2", []byte("2")))
	require.NoError(t, s.Set(ctx, "settings_theme", []byte("dark")))

	keys, err := s.Keys(ctx, "ainyx_flow_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ainyx_flow_app-1", "ainyx_flow_app-2"}, keys)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	s, err := Open(WithDataDir(dir), WithLogger(logger), WithSyncWrites(true))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "ainyx_flow_app-2", []byte("durable")))
	require.NoError(t, s.Close())

	s, err = Open(WithDataDir(dir), WithLogger(logger))
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "ainyx_flow_app-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "durable", string(v))
}

func TestStore_ClosedReturnsErrClosed(t *testing.T) {
	s, err := Open(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice is harmless")

	_, _, err = s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, kvstore.ErrClosed)
	assert.ErrorIs(t, s.Set(context.Background(), "k", nil), kvstore.ErrClosed)
}
