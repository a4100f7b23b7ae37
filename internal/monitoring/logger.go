// Package monitoring holds the process-wide informational logger used by
// the storage, plotting and CLI layers. The reconstruction layers log
// through their own ops/diag/trace streams instead.
package monitoring

import "log"

// Logf is the package-level logger. It defaults to log.Printf but may be
// replaced by SetLogger; tests use that to mute or capture it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
