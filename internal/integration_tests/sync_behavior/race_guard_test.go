package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/flowkeeper/internal/controller"
	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/inmemorystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Rapid switching over a slow API must always end on the last selection.
func TestRapidSwitching_EndsOnLastSelection(t *testing.T) {
	t.Parallel()

	// Arrange
	s := newStack(t, inmemorystore.New(), newAPI(t, 50*time.Millisecond))
	ctx := context.Background()

	// Act
	var loads []*controller.Load
	for _, id := range []graph.ApplicationID{"app-1", "app-3", "app-1", "app-2"} {
		loads = append(loads, s.ctrl.Select(ctx, id))
	}
	for _, l := range loads[:3] {
		assert.Equal(t, controller.OutcomeStale, settle(t, l))
	}
	last := settle(t, loads[3])

	// Assert
	require.Equal(t, controller.OutcomeHydrated, last)
	snap, ok := s.ctrl.Snapshot()
	require.True(t, ok)
	assert.Equal(t, graph.ApplicationID("app-2"), snap.ApplicationID)
	assert.Len(t, snap.Nodes, 3)

	for _, id := range []graph.ApplicationID{"app-1", "app-3"} {
		_, found := s.snaps.Load(ctx, id)
		assert.False(t, found, "superseded fetch for %s must not be stored", id)
	}
}

// Two controllers sharing one store keep independent selections.
func TestIndependentControllers_ShareStorage(t *testing.T) {
	t.Parallel()

	// Arrange
	kv := inmemorystore.New()
	source := newAPI(t, 0)
	left := newStack(t, kv, source)
	right := newStack(t, kv, source)
	ctx := context.Background()

	// Act
	require.Equal(t, controller.OutcomeHydrated, settle(t, left.ctrl.Select(ctx, "app-1")))
	require.Equal(t, controller.OutcomeHydrated, settle(t, right.ctrl.Select(ctx, "app-2")))
	require.NoError(t, left.ctrl.MoveNode(ctx, "1", graph.Position{X: -5, Y: -5}))

	// Assert
	assert.Equal(t, graph.ApplicationID("app-1"), left.ctrl.Current())
	assert.Equal(t, graph.ApplicationID("app-2"), right.ctrl.Current())

	load := right.ctrl.Select(ctx, "app-1")
	require.Equal(t, controller.OutcomeHydrated, settle(t, load))
	assert.Equal(t, controller.OriginLocal, load.Origin())
	snap, _ := right.ctrl.Snapshot()
	assert.Equal(t, graph.Position{X: -5, Y: -5}, snap.Nodes[0].Position)
}
