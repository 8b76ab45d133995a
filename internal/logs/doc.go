// Package logs reads the daemon's log file for the CLI.
//
// Tail returns the last N lines or everything after a byte offset, and in
// follow mode blocks until new lines arrive, the wait expires, or the context
// ends. Memory stays bounded by the requested line count.
package logs
