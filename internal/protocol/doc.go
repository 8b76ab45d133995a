// Package protocol defines the draw messages understood by the overlay
// renderer and encodes them into wire frames.
//
// A frame is the ASCII decimal byte length of a UTF-8 JSON object, a literal
// '#', then the JSON bytes, with no trailing delimiter. Each message kind owns
// a distinct set of JSON fields; Raw passes a caller-built object through
// untouched apart from text sanitization.
//
// Validation helpers report caller mistakes (bad colors, unknown shapes or
// size classes) as *ValidationError values wrapping ErrProtocolViolation so
// the overlay facade can reject them before anything is queued.
package protocol
