// Package snapshotstore persists one graph snapshot per application on top of
// a kvstore.Store.
//
// Every record carries the id of the application that owns it, and Load
// refuses to hand out a record whose embedded id differs from the one that was
// asked for. A key-derivation bug or a hand-edited storage entry therefore
// turns into a cache miss instead of the wrong graph being shown. Records that
// fail that check, or that do not decode, are deleted on sight so the same
// failure is not hit again.
//
// Durability is best-effort: write failures are logged and reported to the
// caller as *StorageError, but nothing in this package panics or brings the
// process down.
package snapshotstore
