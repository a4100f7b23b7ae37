// Package l1hits owns Layer 1 (Hits) of the track reconstruction model.
//
// Responsibilities: the arena-backed hit store built once per event,
// per-sensor read-only views over it, and the fail-fast integrity
// checks on the input record.
// Key types: Store, Sensor, Hit.
//
// Dependency rule: L1 may depend on the event package only. It never
// imports L2+ and holds no mutable search state.
package l1hits
