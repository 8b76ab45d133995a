package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// FrameSeparator splits the length prefix from the payload.
const FrameSeparator = '#'

// MaxFrameSize bounds ReadFrame allocations.
const MaxFrameSize = 16 << 20

// ErrMalformedFrame is returned by ReadFrame for prefixes that are not a
// positive decimal length followed by '#'.
var ErrMalformedFrame = errors.New("malformed frame")

// Encode renders msg as one wire frame.
func Encode(msg Message) ([]byte, error) {
	payload, err := Payload(msg)
	if err != nil {
		return nil, err
	}
	return Frame(payload), nil
}

// Payload returns the sanitized JSON body for msg without the length prefix.
func Payload(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("encode: nil message")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Kind(), err)
	}
	payload := bytes.TrimRight(buf.Bytes(), "\n")
	sanitized, _, err := transform.Bytes(runes.Map(sanitizeRune), payload)
	if err != nil {
		return nil, fmt.Errorf("sanitize %s message: %w", msg.Kind(), err)
	}
	return sanitized, nil
}

// Frame prefixes payload with its byte length and the separator.
func Frame(payload []byte) []byte {
	prefix := strconv.Itoa(len(payload))
	out := make([]byte, 0, len(prefix)+1+len(payload))
	out = append(out, prefix...)
	out = append(out, FrameSeparator)
	return append(out, payload...)
}

// ReadFrame reads one frame from r and returns its payload.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	prefix, err := r.ReadString(FrameSeparator)
	if err != nil {
		if errors.Is(err, io.EOF) && prefix == "" {
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	digits := prefix[:len(prefix)-1]
	size, err := strconv.Atoi(digits)
	if err != nil || size < 0 || len(digits) == 0 || digits[0] == '+' || digits[0] == '-' {
		return nil, fmt.Errorf("%w: length prefix %q", ErrMalformedFrame, digits)
	}
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: length %d exceeds %d", ErrMalformedFrame, size, MaxFrameSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// sanitizeRune swaps glyphs the renderer's fonts cannot draw for close
// equivalents.
func sanitizeRune(r rune) rune {
	switch r {
	case '\u202f':
		return '\u00a0'
	case '\U0001F4C8':
		return '*'
	case '\U0001F4DD':
		return '»'
	default:
		return r
	}
}
