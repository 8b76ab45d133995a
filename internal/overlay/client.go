package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"hudoverlay/internal/fonts"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/protocol"
	"hudoverlay/internal/sendqueue"
)

const (
	// TokenLength is the number of hex characters in a client token.
	TokenLength = 8
	// DefaultTTL applies to text and shapes sent with a zero TTL.
	DefaultTTL = 4
)

// idFields are rewritten with the client token in raw messages.
var idFields = []string{"msgid", "shapeid", "svgid", "id"}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:TokenLength]
}

// connector is implemented by senders that can dial eagerly.
type connector interface {
	Connect(ctx context.Context) bool
}

// Client sends draw requests for one owner.
type Client struct {
	owner    string
	token    string
	resolver *fonts.Resolver
	sender   sendqueue.Sender
	worker   *sendqueue.Worker
	logger   *slog.Logger
}

// Owner returns the identity the client resolves fonts for.
func (c *Client) Owner() string { return c.owner }

// Token returns the id prefix of this client.
func (c *Client) Token() string { return c.token }

// Stats returns the send worker counters.
func (c *Client) Stats() sendqueue.Stats { return c.worker.Stats() }

// SendMessage draws text. Size defaults to normal, TTL to DefaultTTL, and a
// zero FontSize is resolved from the owner's font configuration. Empty text
// and color erase the message with this id.
func (c *Client) SendMessage(msg protocol.Text) error {
	if msg.Size == "" {
		msg.Size = string(fonts.Normal)
	}
	if msg.TTL == 0 {
		msg.TTL = DefaultTTL
	}
	if err := protocol.Validate(msg); err != nil {
		return err
	}
	msg.ID = c.token + msg.ID
	if msg.FontSize == 0 {
		msg.FontSize = c.resolver.Resolve(c.owner, fonts.ParseSizeClass(msg.Size))
	}
	return c.enqueue(msg)
}

// SendShape draws a rectangle or vector shape. An empty Fill takes the
// outline color.
func (c *Client) SendShape(msg protocol.Shape) error {
	if msg.TTL == 0 {
		msg.TTL = DefaultTTL
	}
	if msg.Fill == "" && !msg.IsErase() {
		msg.Fill = msg.Color
	}
	if err := protocol.Validate(msg); err != nil {
		return err
	}
	msg.ID = c.token + msg.ID
	return c.enqueue(msg)
}

// SendVector draws a polyline through points with optional markers.
func (c *Client) SendVector(id, color string, points []protocol.VectorPoint, ttl int) error {
	return c.SendShape(protocol.Shape{
		Shape:  protocol.ShapeVector,
		Color:  color,
		Fill:   color,
		TTL:    ttl,
		ID:     id,
		Vector: points,
	})
}

// SendSvg draws an SVG document. A zero FontSize is resolved from the
// owner's normal size, and so is VectorFontSize when a vector is present.
func (c *Client) SendSvg(msg protocol.Svg) error {
	if err := protocol.Validate(msg); err != nil {
		return err
	}
	msg.ID = c.token + msg.ID
	if msg.FontSize == 0 {
		msg.FontSize = c.resolver.Resolve(c.owner, fonts.Normal)
	}
	if msg.HasVector() && msg.VectorFontSize == 0 {
		msg.VectorFontSize = c.resolver.Resolve(c.owner, fonts.Normal)
	}
	return c.enqueue(msg)
}

// SendCommand sends a renderer control command.
func (c *Client) SendCommand(command string) error {
	msg := protocol.Command{Command: command}
	if err := protocol.Validate(msg); err != nil {
		return err
	}
	return c.enqueue(msg)
}

// RequestExit asks the renderer to shut itself down.
func (c *Client) RequestExit() error {
	return c.SendCommand(protocol.CommandExit)
}

// SetVisible shows or hides everything the renderer draws.
func (c *Client) SetVisible(visible bool) error {
	if visible {
		return c.SendCommand(protocol.CommandOverlayOn)
	}
	return c.SendCommand(protocol.CommandOverlayOff)
}

// SendRaw sends a caller-built object. Id fields are prefixed with the
// token. Unless the object is a shape or already sets font_size, font_size
// is filled from its "size" field; vector_font_size is filled for objects
// carrying a vector. The caller's map is not modified.
func (c *Client) SendRaw(msg protocol.Raw) error {
	if len(msg) == 0 {
		return &protocol.ValidationError{Field: "raw", Reason: "must not be empty"}
	}
	if err := protocol.Validate(msg); err != nil {
		return err
	}
	out := make(protocol.Raw, len(msg)+2)
	for k, v := range msg {
		out[k] = v
	}
	for _, field := range idFields {
		if value, ok := out[field]; ok {
			out[field] = c.token + stringify(value)
		}
	}
	_, hasFont := out["font_size"]
	_, hasShape := out["shape"]
	if !hasFont && !hasShape {
		size, _ := out["size"].(string)
		out["font_size"] = c.resolver.Resolve(c.owner, fonts.ParseSizeClass(size))
	}
	_, hasVector := out["vector"]
	_, hasVectorFont := out["vector_font_size"]
	if hasVector && !hasVectorFont {
		out["vector_font_size"] = c.resolver.Resolve(c.owner, fonts.Normal)
	}
	return c.enqueue(out)
}

// Connect dials the renderer now instead of on the first send.
func (c *Client) Connect(ctx context.Context) bool {
	if conn, ok := c.sender.(connector); ok {
		return conn.Connect(ctx)
	}
	return true
}

// Close drains the queue, closes the connection and stops the worker. It
// blocks until the worker has exited and is safe to call more than once.
func (c *Client) Close() {
	c.worker.Stop()
	c.logger.Debug("overlay client closed")
}

func (c *Client) enqueue(msg protocol.Message) error {
	frame, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("overlay %s: %w", msg.Kind(), err)
	}
	if !c.worker.Enqueue(frame) {
		c.logger.Debug("overlay client closed; frame dropped", logging.String("kind", msg.Kind().String()))
	}
	return nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
