package protocol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrProtocolViolation marks caller input the renderer would reject.
var ErrProtocolViolation = errors.New("protocol violation")

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", ErrProtocolViolation, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrProtocolViolation }

// Palette lists the named colors the renderer knows.
var Palette = []string{"red", "yellow", "blue", "green", "black"}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateColor accepts a palette name or a #RRGGBB string.
func ValidateColor(field, value string) error {
	for _, name := range Palette {
		if value == name {
			return nil
		}
	}
	if hexColorPattern.MatchString(value) {
		return nil
	}
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: "want one of " + strings.Join(Palette, ", ") + " or #RRGGBB",
	}
}

// ValidateSizeClass accepts "normal" and "large".
func ValidateSizeClass(value string) error {
	switch value {
	case "normal", "large":
		return nil
	default:
		return &ValidationError{Field: "size", Value: value, Reason: "want normal or large"}
	}
}

// ValidateShape accepts the shape kinds the renderer draws.
func ValidateShape(value string) error {
	switch value {
	case ShapeRect, ShapeVector:
		return nil
	default:
		return &ValidationError{Field: "shape", Value: value, Reason: "want rect or vect"}
	}
}

// ValidateMarker accepts an empty marker or one of the known kinds.
func ValidateMarker(value string) error {
	switch value {
	case "", MarkerCross, MarkerCircle:
		return nil
	default:
		return &ValidationError{Field: "marker", Value: value, Reason: "want cross or circle"}
	}
}

// Validate checks the fields of msg that the renderer constrains.
func Validate(msg Message) error {
	switch m := msg.(type) {
	case Text:
		if m.IsErase() {
			return nil
		}
		if err := ValidateColor("color", m.Color); err != nil {
			return err
		}
		return ValidateSizeClass(m.Size)
	case Shape:
		if m.IsErase() {
			return nil
		}
		if err := ValidateShape(m.Shape); err != nil {
			return err
		}
		if err := ValidateColor("color", m.Color); err != nil {
			return err
		}
		if err := ValidateColor("fill", m.Fill); err != nil {
			return err
		}
		for _, p := range m.Vector {
			if err := ValidateMarker(p.Marker); err != nil {
				return err
			}
			if p.Color != "" {
				if err := ValidateColor("vector.color", p.Color); err != nil {
					return err
				}
			}
		}
		return nil
	case Command:
		if strings.TrimSpace(m.Command) == "" {
			return &ValidationError{Field: "command", Value: m.Command, Reason: "must not be empty"}
		}
		return nil
	case Raw:
		for _, field := range []string{"color", "fill"} {
			value, ok := m[field]
			if !ok {
				continue
			}
			s, isString := value.(string)
			if !isString {
				return &ValidationError{Field: field, Value: fmt.Sprint(value), Reason: "must be a string"}
			}
			if err := ValidateColor(field, s); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
