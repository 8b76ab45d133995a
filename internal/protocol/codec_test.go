package protocol_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"hudoverlay/internal/protocol"
)

func splitFrame(t *testing.T, frame []byte) (int, []byte) {
	t.Helper()
	idx := bytes.IndexByte(frame, '#')
	if idx <= 0 {
		t.Fatalf("frame has no length prefix: %q", frame)
	}
	n, err := strconv.Atoi(string(frame[:idx]))
	if err != nil {
		t.Fatalf("parse prefix %q: %v", frame[:idx], err)
	}
	return n, frame[idx+1:]
}

func TestEncodeCommandIsBitExact(t *testing.T) {
	frame, err := protocol.Encode(protocol.Command{Command: protocol.CommandExit})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got, want := string(frame), `18#{"command":"exit"}`; got != want {
		t.Fatalf("frame = %q, want %q", got, want)
	}
}

func TestLengthPrefixMatchesUTF8ByteLength(t *testing.T) {
	messages := []protocol.Message{
		protocol.Text{Text: "hi", Color: "red", X: 10, Y: 10, TTL: 4, Size: "normal", ID: "m1", FontSize: 16},
		protocol.Text{Text: "Jämeson – 星 » ok", Color: "#00ff00", Size: "large", ID: "utf"},
		protocol.Shape{Shape: "rect", Color: "blue", Fill: "black", W: 5, H: 6, TTL: 2, ID: "s"},
		protocol.Svg{Svg: `<svg><text>a&b</text></svg>`, CSS: "text{fill:red}", ID: "g"},
		protocol.Raw{"text": "raw ✓", "ttl": 3},
	}
	for _, msg := range messages {
		frame, err := protocol.Encode(msg)
		if err != nil {
			t.Fatalf("Encode(%T): %v", msg, err)
		}
		n, payload := splitFrame(t, frame)
		if n != len(payload) {
			t.Fatalf("%s: prefix %d but payload has %d bytes", msg.Kind(), n, len(payload))
		}
		if !json.Valid(payload) {
			t.Fatalf("%s: payload is not valid json: %q", msg.Kind(), payload)
		}
	}
}

func TestTextRoundTripIncludesFontSize(t *testing.T) {
	frame, err := protocol.Encode(protocol.Text{
		Text: "hi", Color: "red", X: 10, Y: 10, TTL: 4, Size: "normal", ID: "m1", FontSize: 16,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, payload := splitFrame(t, frame)

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"text": "hi", "color": "red", "x": float64(10), "y": float64(10),
		"ttl": float64(4), "size": "normal", "id": "m1", "font_size": float64(16),
	}
	if len(decoded) != len(want) {
		t.Fatalf("decoded %d fields, want %d: %#v", len(decoded), len(want), decoded)
	}
	for k, v := range want {
		if decoded[k] != v {
			t.Fatalf("field %s = %#v, want %#v", k, decoded[k], v)
		}
	}
}

func TestTextFieldOrder(t *testing.T) {
	payload, err := protocol.Payload(protocol.Text{Text: "a", Color: "red", Size: "normal", ID: "i", FontSize: 9})
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	want := `{"text":"a","color":"red","x":0,"y":0,"ttl":0,"size":"normal","id":"i","font_size":9}`
	if string(payload) != want {
		t.Fatalf("payload = %s, want %s", payload, want)
	}
}

func TestSvgOmitsVectorFieldsWhenAbsent(t *testing.T) {
	payload, err := protocol.Payload(protocol.Svg{Svg: "<svg/>", ID: "x"})
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if strings.Contains(string(payload), "vector") {
		t.Fatalf("unexpected vector fields: %s", payload)
	}
	if !strings.Contains(string(payload), `"svg":"<svg/>"`) {
		t.Fatalf("expected unescaped svg markup: %s", payload)
	}
}

func TestPayloadSanitizesUnsupportedGlyphs(t *testing.T) {
	payload, err := protocol.Payload(protocol.Text{Text: "1 000 \U0001F4C8 \U0001F4DD", Color: "red", Size: "normal"})
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	var decoded protocol.Text
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Text != "1 000 * »" {
		t.Fatalf("sanitized text = %q", decoded.Text)
	}
}

func TestReadFrameSplitsConcatenatedFrames(t *testing.T) {
	var stream bytes.Buffer
	for _, cmd := range []string{"overlay_on", "exit"} {
		frame, err := protocol.Encode(protocol.Command{Command: cmd})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		stream.Write(frame)
	}

	r := bufio.NewReader(&stream)
	var got []string
	for {
		payload, err := protocol.ReadFrame(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		var cmd protocol.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, cmd.Command)
	}
	if strings.Join(got, ",") != "overlay_on,exit" {
		t.Fatalf("commands = %v", got)
	}
}

func TestReadFrameRejectsMalformedInput(t *testing.T) {
	cases := map[string]error{
		"abc#{}":     protocol.ErrMalformedFrame,
		"-1#":        protocol.ErrMalformedFrame,
		"#{}":        protocol.ErrMalformedFrame,
		"10#{}":      io.ErrUnexpectedEOF,
		"12":         io.ErrUnexpectedEOF,
		"999999999#": protocol.ErrMalformedFrame,
	}
	for input, want := range cases {
		_, err := protocol.ReadFrame(bufio.NewReader(strings.NewReader(input)))
		if !errors.Is(err, want) {
			t.Errorf("ReadFrame(%q) err = %v, want %v", input, err, want)
		}
	}
}
