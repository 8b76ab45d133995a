// Package config loads, normalizes, and validates hudoverlay configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as HUDOVERLAY_RENDERER
// and HUDOVERLAY_DEBUG. Accessors translate the file into the option structs
// the supervisor, transport and font resolver consume.
//
// Holder and Watch give long-running processes an atomically swappable view
// of the file so font sizes and the debug flag apply without a restart.
package config
