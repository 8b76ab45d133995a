// Package notifications delivers renderer alerts to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the daemon can call it unconditionally.
package notifications
