// Package logging assembles structured slog loggers and formatting helpers used
// across hudoverlay.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes the attribute helpers and standard field keys the supervisor,
// transport and daemon use to describe renderer lifecycle and delivery
// problems. A shared slog.LevelVar lets the daemon flip between info and
// debug output when the configuration debug flag changes.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing guarantees.
package logging
