package badgerstore

import (
	"log/slog"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	dataDir    string
	logger     *slog.Logger
	syncWrites bool
}

// WithDataDir sets the directory badger keeps its files in. An empty directory
// selects in-memory mode.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

// WithLogger routes badger's internal logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSyncWrites makes every write fsync before returning.
func WithSyncWrites(sync bool) Option {
	return func(o *options) {
		o.syncWrites = sync
	}
}
