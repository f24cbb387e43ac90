// Package monitoring holds the module's diagnostic logging hook.
package monitoring

import "log"

// Logf is the package-level diagnostic logger for the scanning pipeline.
// It defaults to log.Printf; embedders redirect it through SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger, which tests use to mute diagnostic output.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
