// Package logging provides leveled logging for gotelnet, built on the
// standard library's log package rather than a structured-logging
// dependency, matching every call site in the codebase this module is
// adapted from.
package logging

import "log"

// DebugEnabled controls whether Debug() produces output. The example server
// and client set it from their -debug flag.
var DebugEnabled bool

// Debug logs a message only when DebugEnabled is true.
func Debug(format string, args ...any) {
	if DebugEnabled {
		log.Printf("DEBUG: "+format, args...)
	}
}

// Info logs an always-on informational message.
func Info(format string, args ...any) {
	log.Printf("INFO: "+format, args...)
}

// Warn logs a non-fatal anomaly: a malformed negotiation, a discarded
// subnegotiation, an option the peer violated.
func Warn(format string, args ...any) {
	log.Printf("WARN: "+format, args...)
}

// Error logs a fatal or near-fatal condition, such as a transport failure.
func Error(format string, args ...any) {
	log.Printf("ERROR: "+format, args...)
}
