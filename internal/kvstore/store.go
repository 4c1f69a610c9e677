// Package kvstore defines the interface for the string-keyed local persistent
// storage that graph snapshots are written to.
//
// # Why KV Store Exists
//
// The snapshot store owns the rules about what a record means (ownership,
// shape, purge-on-corruption). The key/value store owns only bytes. Keeping
// the two apart lets the same snapshot logic run against:
//   - **inmemorystore**: ephemeral, used by tests and the `memory` driver
//   - **badgerstore**: durable, on-disk, used by the `badger` driver
//
// # Key Space
//
// Keys are plain strings. Callers namespace their keys with a fixed prefix and
// use Keys(prefix) to enumerate only what they own, so one backend can be
// shared by several owners without them seeing each other's data.
package kvstore

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by Set when the backend refuses a write because
// it has run out of space.
var ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

// ErrClosed is returned by any operation on a closed store.
var ErrClosed = errors.New("kvstore: store is closed")

// Store is a string-keyed key/value store.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. The controller persists from
// timer goroutines while the HTTP surface reads.
type Store interface {
	// Get returns the value stored under key. The boolean is false when the
	// key does not exist; that is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix. The order is unspecified.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend. Further calls return ErrClosed.
	Close() error
}
