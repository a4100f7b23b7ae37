// Package sqlite persists reconstruction runs in a SQLite database.
//
// Responsibilities: opening the database with the connection pragmas
// the stores rely on, applying the embedded schema migrations, and the
// RunStore that records each run with its tracks and hits.
// Key types: DB, RunStore, Run.
//
// Dependency rule: storage may depend on the reconstruction layers to
// read their results, but no layer imports storage.
package sqlite
