// Package pipeline wires the reconstruction layers together for one
// event: build the hit store (failing fast on bad input), run the
// forward search against a fresh arbiter, resolve weak tracks and
// summarise the result.
//
// Dependency rule: pipeline may depend on every layer; no layer depends
// on pipeline. No SQL/database code is allowed in this package.
package pipeline
