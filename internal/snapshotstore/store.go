package snapshotstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/specialistvlad/flowkeeper/internal/graph"
	"github.com/specialistvlad/flowkeeper/internal/kvstore"
)

// DefaultPrefix is the namespace every snapshot key starts with.
const DefaultPrefix = "ainyx_flow_"

// Store reads and writes graph snapshots keyed by application id.
type Store struct {
	kv     kvstore.Store
	prefix string
	logger *slog.Logger
}

// New creates a snapshot store. An empty prefix selects DefaultPrefix.
func New(kv kvstore.Store, prefix string, logger *slog.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:     kv,
		prefix: prefix,
		logger: logger.With("component", "snapshotstore"),
	}
}

// Key returns the storage key for an application.
func (s *Store) Key(appID graph.ApplicationID) string {
	return s.prefix + string(appID)
}

// Prefix returns the namespace owned by this store.
func (s *Store) Prefix() string {
	return s.prefix
}

// Save writes the full snapshot under the application's key, overwriting any
// previous value. The stored copy always carries appID as its owner. Failures
// are logged and returned as *StorageError; callers may ignore them.
func (s *Store) Save(ctx context.Context, appID graph.ApplicationID, snap *graph.Snapshot) error {
	if snap == nil {
		return s.fail("save", appID, errors.New("nil snapshot"))
	}
	record := snap.Clone()
	record.ApplicationID = appID
	if record.Nodes == nil {
		record.Nodes = []graph.NodeRecord{}
	}
	if record.Edges == nil {
		record.Edges = []graph.EdgeRecord{}
	}

	b, err := json.Marshal(record)
	if err != nil {
		return s.fail("save", appID, fmt.Errorf("serialize: %w", err))
	}
	if err := s.kv.Set(ctx, s.Key(appID), b); err != nil {
		return s.fail("save", appID, err)
	}
	s.logger.Debug("Snapshot saved.", "app_id", appID, "nodes", len(record.Nodes), "edges", len(record.Edges), "bytes", len(b))
	return nil
}

// Load returns the snapshot stored for appID. It reports false when nothing
// usable is stored: no record, a read failure, a malformed record, or a record
// owned by a different application. Malformed and foreign records are purged.
func (s *Store) Load(ctx context.Context, appID graph.ApplicationID) (*graph.Snapshot, bool) {
	key := s.Key(appID)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Error("Failed to read snapshot.", "app_id", appID, "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	snap, cerr := decode(appID, key, raw)
	if cerr != nil {
		s.logger.Warn("Discarding corrupt snapshot.", "app_id", appID, "key", key, "reason", cerr.Reason, "error", cerr)
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Error("Failed to purge corrupt snapshot.", "app_id", appID, "key", key, "error", err)
		}
		return nil, false
	}
	return snap, true
}

// Delete removes the snapshot for one application.
func (s *Store) Delete(ctx context.Context, appID graph.ApplicationID) error {
	if err := s.kv.Delete(ctx, s.Key(appID)); err != nil {
		return s.fail("delete", appID, err)
	}
	s.logger.Debug("Snapshot deleted.", "app_id", appID)
	return nil
}

// ClearAll removes every snapshot under this store's prefix. Keys outside the
// prefix are left alone. Failures are logged only.
func (s *Store) ClearAll(ctx context.Context) {
	keys, err := s.kv.Keys(ctx, s.prefix)
	if err != nil {
		s.logger.Error("Failed to list snapshots for clearing.", "prefix", s.prefix, "error", err)
		return
	}
	removed := 0
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Error("Failed to clear snapshot.", "key", key, "error", err)
			continue
		}
		removed++
	}
	s.logger.Info("Cleared stored snapshots.", "prefix", s.prefix, "removed", removed)
}

// Applications lists the ids that currently have a stored snapshot.
func (s *Store) Applications(ctx context.Context) ([]graph.ApplicationID, error) {
	keys, err := s.kv.Keys(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	ids := make([]graph.ApplicationID, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, graph.ApplicationID(strings.TrimPrefix(k, s.prefix)))
	}
	return ids, nil
}

func (s *Store) fail(op string, appID graph.ApplicationID, err error) error {
	serr := &StorageError{Op: op, AppID: appID, Err: err}
	s.logger.Error("Snapshot storage failure.", "op", op, "app_id", appID, "error", err)
	return serr
}

func decode(appID graph.ApplicationID, key string, raw []byte) (*graph.Snapshot, *CorruptSnapshotError) {
	if err := graph.ValidateSnapshotJSON(raw); err != nil {
		return nil, &CorruptSnapshotError{AppID: appID, Key: key, Reason: "invalid shape", Err: err}
	}
	var snap graph.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &CorruptSnapshotError{AppID: appID, Key: key, Reason: "undecodable", Err: err}
	}
	if snap.ApplicationID != appID {
		return nil, &CorruptSnapshotError{
			AppID:  appID,
			Key:    key,
			Reason: fmt.Sprintf("owned by %q", snap.ApplicationID),
		}
	}
	if snap.Nodes == nil {
		snap.Nodes = []graph.NodeRecord{}
	}
	if snap.Edges == nil {
		snap.Edges = []graph.EdgeRecord{}
	}
	return &snap, nil
}
