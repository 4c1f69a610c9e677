// Package controller implements the synchronization controller: the component
// that decides where the displayed graph comes from, keeps slow remote fetches
// from clobbering a newer selection, and writes every edit through to the
// local snapshot store.
//
// # State Machine
//
//	Idle ──Select(id)──▶ Resolving(id) ──local hit──────────▶ Hydrated(id)
//	                         │
//	                         └──fetch──▶ settle ──ok────────▶ Hydrated(id)
//	                                        └──error────────▶ Failed(id)
//
// Selecting another application from any state re-enters Resolving for the new
// id. Each Resolving transition bumps a generation counter; a fetch only
// commits if the generation it captured is still current when it returns.
// Results that lose this race are dropped without touching state.
//
// # Load Provenance
//
// The controller remembers, per application, whether a snapshot for exactly
// that application has been placed in the live state. Persistence is refused
// unless that flag is set, so a half-initialized or empty graph can never be
// written over a good stored one while a load is still in flight.
//
// # Persistence
//
// Every mutation marks the live snapshot dirty. With a zero debounce the
// snapshot is saved before the mutating call returns. With a positive debounce
// the first mutation arms a timer and later mutations in the same window ride
// along, so a continuous drag produces one write per window carrying the
// latest positions. Pending writes are flushed before switching applications
// and on Close.
//
// # Concurrency
//
// All state is guarded by one mutex. Storage calls are made while holding it;
// they are expected to be fast and local. The only call made without the lock
// is the remote fetch.
package controller
