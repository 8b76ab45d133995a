package protocol

import "encoding/json"

// Kind identifies the message variant.
type Kind int

const (
	KindCommand Kind = iota
	KindText
	KindShape
	KindSvg
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindText:
		return "text"
	case KindShape:
		return "shape"
	case KindSvg:
		return "svg"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Renderer commands.
const (
	CommandExit       = "exit"
	CommandOverlayOn  = "overlay_on"
	CommandOverlayOff = "overlay_off"
)

// Shape kinds accepted by the renderer.
const (
	ShapeRect   = "rect"
	ShapeVector = "vect"
)

// Marker kinds for vector points.
const (
	MarkerCross  = "cross"
	MarkerCircle = "circle"
)

// Message is one draw request or control command.
type Message interface {
	Kind() Kind
}

// Command is a control instruction for the renderer itself.
type Command struct {
	Command string `json:"command"`
}

// Text draws a string at a screen position.
type Text struct {
	Text     string `json:"text"`
	Color    string `json:"color"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TTL      int    `json:"ttl"`
	Size     string `json:"size"`
	ID       string `json:"id"`
	FontSize int    `json:"font_size,omitempty"`
}

// VectorPoint is one vertex of a "vect" shape, optionally decorated with a
// marker and a label.
type VectorPoint struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Marker string `json:"marker,omitempty"`
	Color  string `json:"color,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Shape draws a rectangle or, with Shape set to "vect", a polyline.
type Shape struct {
	Shape  string        `json:"shape"`
	Color  string        `json:"color"`
	Fill   string        `json:"fill"`
	X      int           `json:"x"`
	Y      int           `json:"y"`
	W      int           `json:"w"`
	H      int           `json:"h"`
	TTL    int           `json:"ttl"`
	ID     string        `json:"id"`
	Vector []VectorPoint `json:"vector,omitempty"`
}

// Svg draws an SVG document, optionally styled and with a vector overlay.
type Svg struct {
	Svg            string          `json:"svg"`
	CSS            string          `json:"css"`
	FontFile       string          `json:"font_file"`
	X              int             `json:"x"`
	Y              int             `json:"y"`
	TTL            int             `json:"ttl"`
	ID             string          `json:"id"`
	FontSize       int             `json:"font_size,omitempty"`
	Vector         json.RawMessage `json:"vector,omitempty"`
	VectorFontSize int             `json:"vector_font_size,omitempty"`
}

// Raw is a caller-assembled JSON object sent as-is.
type Raw map[string]any

func (Command) Kind() Kind { return KindCommand }
func (Text) Kind() Kind { return KindText }
func (Shape) Kind() Kind { return KindShape }
func (Svg) Kind() Kind { return KindSvg }
func (Raw) Kind() Kind { return KindRaw }

// HasVector reports whether the SVG carries a vector overlay.
func (s Svg) HasVector() bool {
	return len(s.Vector) > 0 && string(s.Vector) != "null"
}

// IsErase reports whether the message asks the renderer to remove the text
// with this id instead of drawing it.
func (t Text) IsErase() bool {
	return t.Text == "" && t.Color == ""
}

// IsErase reports whether the message removes the shape with this id.
func (s Shape) IsErase() bool {
	return s.Shape == "" && s.Color == ""
}
