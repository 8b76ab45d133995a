// Package main hosts the hudoverlay CLI entrypoint and command graph.
//
// The Cobra command tree translates terminal invocations into IPC calls
// against the overlay daemon: daemon lifecycle, renderer control, overlay
// messages, log tailing, font inspection, and configuration scaffolding.
// Heavy lifting stays in internal packages; commands here only parse flags
// and render results.
package main
