// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Drawing
// calls return once the message is queued on the owner's client; delivery to
// the renderer happens asynchronously, so a success reply does not mean the
// renderer displayed anything.
package ipc
