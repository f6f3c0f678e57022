// Package monitoring carries the package-level diagnostic logger shared
// by the layers above the voxelization engine. The engine itself never
// logs; readers, stores and renderers report through Logf so binaries
// and tests can redirect or mute diagnostics.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// Timed logs the elapsed wall time of an operation when the returned
// func runs:
//
//	defer monitoring.Timed("voxelize")()
func Timed(name string) func() {
	start := time.Now()
	return func() {
		Logf("%s took %s", name, time.Since(start).Round(time.Microsecond))
	}
}
