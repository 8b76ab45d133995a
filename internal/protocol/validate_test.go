package protocol_test

import (
	"errors"
	"testing"

	"hudoverlay/internal/protocol"
)

func TestValidateColor(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"red", true},
		{"yellow", true},
		{"blue", true},
		{"green", true},
		{"black", true},
		{"#a1B2c3", true},
		{"white", false},
		{"Red", false},
		{"#12345", false},
		{"#1234567", false},
		{"#gg0000", false},
		{"", false},
	}
	for _, tc := range tests {
		err := protocol.ValidateColor("color", tc.value)
		if tc.ok && err != nil {
			t.Errorf("ValidateColor(%q) unexpected error: %v", tc.value, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("ValidateColor(%q) expected error", tc.value)
				continue
			}
			if !errors.Is(err, protocol.ErrProtocolViolation) {
				t.Errorf("ValidateColor(%q) error %v does not wrap ErrProtocolViolation", tc.value, err)
			}
		}
	}
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name  string
		msg   protocol.Message
		field string
	}{
		{"text ok", protocol.Text{Color: "red", Size: "normal"}, ""},
		{"text erase", protocol.Text{ID: "m1"}, ""},
		{"text missing color", protocol.Text{Text: "hi", Size: "normal"}, "color"},
		{"shape erase", protocol.Shape{ID: "s1"}, ""},
		{"text bad size", protocol.Text{Color: "red", Size: "huge"}, "size"},
		{"shape bad fill", protocol.Shape{Shape: "rect", Color: "red", Fill: "pink"}, "fill"},
		{"shape bad kind", protocol.Shape{Shape: "circle", Color: "red", Fill: "red"}, "shape"},
		{"vector bad marker", protocol.Shape{Shape: "vect", Color: "red", Fill: "red", Vector: []protocol.VectorPoint{{Marker: "star"}}}, "marker"},
		{"empty command", protocol.Command{}, "command"},
		{"raw bad color", protocol.Raw{"color": "mauve"}, "color"},
		{"raw non-string fill", protocol.Raw{"fill": 3}, "fill"},
		{"raw ok", protocol.Raw{"text": "x", "color": "#000000"}, ""},
		{"svg", protocol.Svg{Svg: "<svg/>"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := protocol.Validate(tc.msg)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *protocol.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}
