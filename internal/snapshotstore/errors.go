package snapshotstore

import (
	"fmt"

	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// StorageError reports a failed write or delete. It is never fatal; the
// in-memory graph is unaffected.
type StorageError struct {
	Op    string
	AppID graph.ApplicationID
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("snapshot %s for %q: %v", e.Op, e.AppID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CorruptSnapshotError describes a record that was found but cannot be used:
// it belongs to another application or does not have a valid shape. Load
// treats it as a miss and purges the record.
type CorruptSnapshotError struct {
	AppID  graph.ApplicationID
	Key    string
	Reason string
	Err    error
}

func (e *CorruptSnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt snapshot at %q for %q: %s: %v", e.Key, e.AppID, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt snapshot at %q for %q: %s", e.Key, e.AppID, e.Reason)
}

func (e *CorruptSnapshotError) Unwrap() error {
	return e.Err
}
