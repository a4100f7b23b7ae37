// Package l4forward owns Layer 4 (Forward search) of the reconstruction
// model.
//
// Responsibilities: walking sensor pairs from the far end of the detector
// inward, forming seeds, confirming them with a third hit, extending the
// candidates one sensor at a time with a rolling two-hit model, and
// handing each finished candidate to the arbitration layer.
// Key types: Builder, Config, Stats, SeedState.
//
// Dependency rule: L4 may depend on L1-L3. It holds no state across
// events; everything mutable lives in the l3tracks.Arbiter it is given.
package l4forward
