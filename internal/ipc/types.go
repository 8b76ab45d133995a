package ipc

import (
	"time"

	"hudoverlay/internal/daemon"
	"hudoverlay/internal/protocol"
)

// StartRequest asks an idle daemon to start.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon without exiting the process.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ShutdownRequest stops the daemon and ends the process.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// RendererStatus describes the supervised renderer process.
type RendererStatus = daemon.RendererStatus

// FontStatus reports the global font sizes in effect.
type FontStatus = daemon.FontStatus

// ClientStatus summarizes one owner's delivery counters.
type ClientStatus = daemon.ClientStatus

// StatusResponse represents combined daemon and renderer status.
type StatusResponse struct {
	Running    bool           `json:"running"`
	PID        int            `json:"pid"`
	StartedAt  time.Time      `json:"started_at"`
	ConfigPath string         `json:"config_path"`
	LockPath   string         `json:"lock_path"`
	LogPath    string         `json:"log_path"`
	Debug      bool           `json:"debug"`
	Reloads    int64          `json:"reloads"`
	Renderer   RendererStatus `json:"renderer"`
	Fonts      FontStatus     `json:"fonts"`
	Clients    []ClientStatus `json:"clients"`
}

// RendererRequest targets the supervised renderer.
type RendererRequest struct{}

// RendererResponse reports the renderer state after the operation.
type RendererResponse struct {
	State    string `json:"state"`
	PID      int    `json:"pid"`
	Launches int64  `json:"launches"`
}

// TextRequest draws or erases text for Owner.
type TextRequest struct {
	Owner   string        `json:"owner"`
	Message protocol.Text `json:"message"`
}

// ShapeRequest draws or erases a shape for Owner.
type ShapeRequest struct {
	Owner string         `json:"owner"`
	Shape protocol.Shape `json:"shape"`
}

// VectorRequest draws a polyline for Owner.
type VectorRequest struct {
	Owner  string                 `json:"owner"`
	ID     string                 `json:"id"`
	Color  string                 `json:"color"`
	TTL    int                    `json:"ttl"`
	Points []protocol.VectorPoint `json:"points"`
}

// SvgRequest draws an SVG document for Owner.
type SvgRequest struct {
	Owner string       `json:"owner"`
	Svg   protocol.Svg `json:"svg"`
}

// CommandRequest forwards a renderer command.
type CommandRequest struct {
	Owner   string `json:"owner"`
	Command string `json:"command"`
}

// RawRequest forwards a caller-built message.
type RawRequest struct {
	Owner   string       `json:"owner"`
	Message protocol.Raw `json:"message"`
}

// SendResponse reports which client queued the message.
type SendResponse struct {
	Queued bool   `json:"queued"`
	Owner  string `json:"owner"`
	Token  string `json:"token"`
}

// TestNotificationRequest asks the daemon to send a test alert.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the alert went out.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
