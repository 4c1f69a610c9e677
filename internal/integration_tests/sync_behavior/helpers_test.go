package integration_tests

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/specialistvlad/flowkeeper/internal/controller"
	"github.com/specialistvlad/flowkeeper/internal/kvstore"
	"github.com/specialistvlad/flowkeeper/internal/mockapi"
	"github.com/specialistvlad/flowkeeper/internal/remote"
	"github.com/specialistvlad/flowkeeper/internal/snapshotstore"
	"github.com/specialistvlad/flowkeeper/internal/testutil"
	"github.com/stretchr/testify/require"
)

// stack is a controller talking HTTP to a mock graph API.
type stack struct {
	ctrl  *controller.Controller
	snaps *snapshotstore.Store
}

func newAPI(t *testing.T, latency time.Duration) *remote.HTTPSource {
	t.Helper()
	logger, _ := testutil.NewLogger(t)
	api := httptest.NewServer(mockapi.New(mockapi.DefaultCatalog(), logger, mockapi.WithLatency(latency)).Handler())
	t.Cleanup(api.Close)
	source, err := remote.NewHTTPSource(api.URL, remote.NewHTTPClient(5*time.Second), logger)
	require.NoError(t, err)
	return source
}

func newStack(t *testing.T, kv kvstore.Store, source remote.Source) *stack {
	t.Helper()
	logger, _ := testutil.NewLogger(t)
	snaps := snapshotstore.New(kv, snapshotstore.DefaultPrefix, logger)
	ctrl := controller.New(snaps, source, controller.Options{Logger: logger})
	t.Cleanup(func() { _ = ctrl.Close(context.Background()) })
	return &stack{ctrl: ctrl, snaps: snaps}
}

func settle(t *testing.T, l *controller.Load) controller.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := l.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return outcome
}
