// Package fonts resolves the font size a caller's text should be drawn with.
//
// Resolution walks a fixed chain: a per-owner override whose key is a
// substring of the caller's identity, then the global defaults, then the
// built-in sizes. Levels whose base size is below MinValidSize are skipped.
package fonts
