// Package daemon coordinates the long-running hudoverlay process.
//
// It wires the configuration holder, the renderer supervisor, and one overlay
// client per owner identity into a single lifecycle, with flock-based locking
// to prevent two daemons sharing a state directory. Configuration reloads are
// applied in place: the debug level flips immediately, font changes reach
// existing clients on their next message, and launch or geometry changes
// restart a running renderer.
//
// An optional HTTP API exposes the same drawing operations as the IPC
// socket for tools that cannot speak JSON-RPC.
package daemon
