// Package sendqueue decouples overlay callers from renderer latency.
//
// A Worker owns an unbounded FIFO of encoded frames and a single goroutine
// that hands them to a Sender one at a time. Enqueue never blocks. Stop
// blocks until everything queued before it has been handed off and the
// Sender has been closed.
package sendqueue
