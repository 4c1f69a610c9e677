package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/specialistvlad/flowkeeper/internal/kvstore"
)

// Store implements kvstore.Store with a BadgerDB instance.
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

// Open opens (or creates) a badger database.
func Open(opts ...Option) (*Store, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	var bopts badger.Options
	if o.dataDir == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(o.dataDir)
	}
	bopts = bopts.
		WithLogger(newBadgerLogger(o.logger)).
		WithSyncWrites(o.syncWrites)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", o.dataDir, err)
	}
	o.logger.Debug("Badger store opened.", "data_dir", o.dataDir, "in_memory", o.dataDir == "")
	return &Store{db: db}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, kvstore.ErrClosed
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger get %q: %w", key, err)
	}
	return out, true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return kvstore.ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("badger set %q: %w: %v", key, kvstore.ErrQuotaExceeded, err)
	}
	if err != nil {
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return kvstore.ErrClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}

// Keys lists every key starting with prefix using a key-only iterator.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, kvstore.ErrClosed
	}
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		p := []byte(prefix)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: p})
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger keys %q: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
