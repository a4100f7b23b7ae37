// Package l3tracks owns Layer 3 (Tracks) of the reconstruction model.
//
// Responsibilities: the track candidate type, its strong/weak
// classification, and the per-event Arbiter that enforces hit
// exclusivity (immediate commit of strong tracks, deferred first-claim
// resolution of weak ones).
// Key types: Track, Kind, Arbiter, Result.
//
// Dependency rule: L3 may depend on L1, but never on L4. The Arbiter is
// created per event and is not safe for concurrent use; it relies on the
// caller submitting candidates in a fixed order.
package l3tracks
