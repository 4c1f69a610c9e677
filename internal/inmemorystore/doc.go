// Package inmemorystore provides a thread-safe, in-memory implementation
// of the kvstore.Store interface. It is suitable for development, testing,
// or any scenario where snapshots do not need to survive a restart.
package inmemorystore
