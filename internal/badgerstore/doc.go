// Package badgerstore provides a durable implementation of the kvstore.Store
// interface on top of BadgerDB.
//
// Snapshots written through this store survive process restarts, which is what
// lets the controller skip the remote fetch for applications the user has
// already visited. When no data directory is configured the database runs in
// badger's in-memory mode, which keeps the same semantics without touching disk.
package badgerstore
