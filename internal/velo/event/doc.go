// Package event owns the on-disk representation of one detector snapshot.
//
// Responsibilities: decoding the flat-array event record (sensor z
// positions, per-sensor hit counts and offsets, parallel hit coordinate
// arrays) from JSON, and the file-level sanity checks done before any
// decoding. Structural validation of the arrays is the job of
// l1hits.NewStore, which refuses to index an inconsistent record.
// Key types: Record.
//
// Dependency rule: event is a leaf package and imports nothing from
// internal/velo.
package event
