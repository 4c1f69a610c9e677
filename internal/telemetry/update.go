package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/flowkeeper/internal/controller"
	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// Update is one decoded metrics event.
type Update struct {
	AppID  graph.ApplicationID
	NodeID string
	Fields map[string]any
}

// Applier receives decoded updates. *controller.Controller satisfies it.
type Applier interface {
	ApplyTelemetry(ctx context.Context, appID graph.ApplicationID, nodeID string, fields map[string]any) error
}

// Decode converts an event payload into an Update. The payload may be a
// decoded JSON object or its raw bytes.
func Decode(payload any) (Update, error) {
	var obj map[string]any
	switch p := payload.(type) {
	case map[string]any:
		obj = p
	case []byte:
		if err := json.Unmarshal(p, &obj); err != nil {
			return Update{}, fmt.Errorf("decoding telemetry payload: %w", err)
		}
	case string:
		if err := json.Unmarshal([]byte(p), &obj); err != nil {
			return Update{}, fmt.Errorf("decoding telemetry payload: %w", err)
		}
	default:
		return Update{}, fmt.Errorf("unsupported telemetry payload %T", payload)
	}

	appID, _ := obj["appId"].(string)
	nodeID, _ := obj["nodeId"].(string)
	if appID == "" || nodeID == "" {
		return Update{}, errors.New("telemetry payload needs appId and nodeId")
	}
	fields := make(map[string]any, len(obj))
	for k, v := range obj {
		if k == "appId" || k == "nodeId" {
			continue
		}
		fields[k] = v
	}
	return Update{AppID: graph.ApplicationID(appID), NodeID: nodeID, Fields: fields}, nil
}

// Apply hands u to the applier. Updates for an application that is not on
// screen, or arriving before it has loaded, are dropped quietly.
func Apply(ctx context.Context, applier Applier, logger *slog.Logger, u Update) error {
	if len(u.Fields) == 0 {
		return nil
	}
	err := applier.ApplyTelemetry(ctx, u.AppID, u.NodeID, u.Fields)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, controller.ErrNotCurrent), errors.Is(err, controller.ErrNotHydrated):
		logger.Debug("Dropping telemetry for inactive application.", "app_id", u.AppID, "node_id", u.NodeID)
		return nil
	default:
		logger.Warn("Rejected telemetry update.", "app_id", u.AppID, "node_id", u.NodeID, "error", err)
		return err
	}
}
