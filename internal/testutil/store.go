package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// SaveRecord is one call observed by RecordingStore.
type SaveRecord struct {
	AppID    graph.ApplicationID
	Snapshot *graph.Snapshot
}

// Storage is the snapshot store contract RecordingStore wraps.
type Storage interface {
	Save(ctx context.Context, appID graph.ApplicationID, snap *graph.Snapshot) error
	Load(ctx context.Context, appID graph.ApplicationID) (*graph.Snapshot, bool)
	Delete(ctx context.Context, appID graph.ApplicationID) error
	ClearAll(ctx context.Context)
}

// RecordingStore forwards to another store and remembers every save.
type RecordingStore struct {
	Next Storage

	mu    sync.Mutex
	saves []SaveRecord
}

// NewRecordingStore wraps next.
func NewRecordingStore(next Storage) *RecordingStore {
	return &RecordingStore{Next: next}
}

// Save implements the store contract.
func (r *RecordingStore) Save(ctx context.Context, appID graph.ApplicationID, snap *graph.Snapshot) error {
	r.mu.Lock()
	r.saves = append(r.saves, SaveRecord{AppID: appID, Snapshot: snap.Clone()})
	r.mu.Unlock()
	return r.Next.Save(ctx, appID, snap)
}

// Load implements the store contract.
func (r *RecordingStore) Load(ctx context.Context, appID graph.ApplicationID) (*graph.Snapshot, bool) {
	return r.Next.Load(ctx, appID)
}

// Delete implements the store contract.
func (r *RecordingStore) Delete(ctx context.Context, appID graph.ApplicationID) error {
	return r.Next.Delete(ctx, appID)
}

// ClearAll implements the store contract.
func (r *RecordingStore) ClearAll(ctx context.Context) {
	r.Next.ClearAll(ctx)
}

// Saves returns the recorded saves in order.
func (r *RecordingStore) Saves() []SaveRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SaveRecord(nil), r.saves...)
}

// SavesFor returns the recorded saves for appID.
func (r *RecordingStore) SavesFor(appID graph.ApplicationID) []SaveRecord {
	var out []SaveRecord
	for _, s := range r.Saves() {
		if s.AppID == appID {
			out = append(out, s)
		}
	}
	return out
}
