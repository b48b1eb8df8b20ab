// Package monitoring holds the diagnostic logger shared by the profile
// reader, the export store and the command line tool.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
// Replace it with SetLogger, or mute it with Quiet.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// Quiet mutes Logf and returns a function that restores the previous logger.
func Quiet() (restore func()) {
	prev := Logf
	SetLogger(nil)
	return func() { Logf = prev }
}
