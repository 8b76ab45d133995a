// Package daemonctl drives the daemon process from the CLI: launching it
// detached, waiting for its socket, stopping it with a force-kill fallback,
// and assembling the status view shown by `hudoverlay status`.
package daemonctl
