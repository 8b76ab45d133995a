// Package overlay is the caller-facing API for drawing on the HUD.
//
// A Runtime holds what every caller of one host shares: the renderer
// supervisor, the endpoint and the font configuration. Each caller gets its
// own Client with a random token that is prefixed onto every id it sends,
// its own connection and its own send worker. Client methods validate their
// input synchronously and return immediately; delivery is best-effort.
package overlay
