// Package graph defines the data model shared by every layer of flowkeeper:
// the nodes, edges and viewport that make up one application's topology graph.
//
// # Snapshots and Documents
//
// Two shapes of the same graph travel through the system:
//
//   - **Document** is what the remote graph endpoint returns. It carries nodes
//     and edges only, never a viewport and never the owning application id.
//   - **Snapshot** is what the controller holds in memory and what the local
//     snapshot store persists. It always carries the owning application id so
//     that a record read back from storage can prove who it belongs to.
//
// A Snapshot is created by hydrating a Document (first visit) or by decoding a
// persisted record, mutated in place by user edits, and discarded when another
// application is selected.
//
// # Node Data
//
// Node attributes are split into a fixed set of typed fields (label, status,
// cpu, memory) and an explicit open map for everything else. On the wire both
// halves share a single flat JSON object, matching the format written by
// earlier clients.
package graph
