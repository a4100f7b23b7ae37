// Package l2predicates owns Layer 2 (Geometric predicates).
//
// Responsibilities: the cheap two-hit slope bound used to accept seeds
// and the three-hit extrapolation/scatter test used to confirm and
// extend tracks.
// Key types: Point, SlopeLimits, ToleranceLimits.
//
// Dependency rule: L2 is pure arithmetic over the Point interface. It
// does not import L1 so any point-like value can be tested.
package l2predicates
