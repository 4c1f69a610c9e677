// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the kvstore.Store interface.
//
// # Characteristics
//
//   - **Ephemeral:** Contents are lost when the process exits
//   - **Thread-Safe:** Values live in a sync.Map; only size accounting takes a lock
//   - **Quota:** Optionally refuses writes past a byte budget, the way browser
//     local storage does, so the non-fatal save path can be exercised
//
// # Concurrency Model
//
// Keys are independent (one per application) and rewritten often while the
// key space itself is small and stable, which is the access pattern sync.Map
// is built for.
package inmemorystore

import (
	"context"
	"strings"
	"sync"

	"github.com/specialistvlad/flowkeeper/internal/kvstore"
)

// Store is an in-memory implementation of kvstore.Store.
type Store struct {
	values sync.Map // Key: string, Value: []byte

	mu     sync.Mutex // guards used and closed
	used   int
	quota  int
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithQuota limits the total number of value bytes the store will hold.
// Zero means unlimited.
func WithQuota(bytes int) Option {
	return func(s *Store) {
		s.quota = bytes
	}
}

// New creates a new, empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.isClosed() {
		return nil, false, kvstore.ErrClosed
	}
	v, ok := s.values.Load(key)
	if !ok {
		return nil, false, nil
	}
	b := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

// Set stores a copy of value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kvstore.ErrClosed
	}

	prev := 0
	if v, ok := s.values.Load(key); ok {
		prev = len(v.([]byte))
	}
	next := s.used - prev + len(value)
	if s.quota > 0 && next > s.quota {
		return kvstore.ErrQuotaExceeded
	}

	b := make([]byte, len(value))
	copy(b, value)
	s.values.Store(key, b)
	s.used = next
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kvstore.ErrClosed
	}
	if v, loaded := s.values.LoadAndDelete(key); loaded {
		s.used -= len(v.([]byte))
	}
	return nil
}

// Keys lists every key starting with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.isClosed() {
		return nil, kvstore.ErrClosed
	}
	var keys []string
	s.values.Range(func(k, _ any) bool {
		if key := k.(string); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, nil
}

// Close marks the store closed and drops its contents.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.values.Clear()
	s.used = 0
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
