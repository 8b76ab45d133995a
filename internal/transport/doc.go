// Package transport keeps a lazily dialed TCP connection to the renderer and
// delivers frames over it on a best-effort basis.
//
// A Conn makes sure the renderer is running before it dials, reconnects on
// failure, and retries a frame a bounded number of times with jittered
// backoff. Failures are logged and reported as a boolean; nothing in this
// package returns transport errors to overlay callers.
package transport
