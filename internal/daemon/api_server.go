package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"hudoverlay/internal/config"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/protocol"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

// vectorRequest is the POST /api/vector body.
type vectorRequest struct {
	ID     string                 `json:"id"`
	Color  string                 `json:"color"`
	TTL    int                    `json:"ttl"`
	Points []protocol.VectorPoint `json:"points"`
}

// commandRequest is the POST /api/command body.
type commandRequest struct {
	Command string `json:"command"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}
	token := cfg.API.Token

	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/text", authMiddleware(token, srv.handleText))
	mux.HandleFunc("/api/shape", authMiddleware(token, srv.handleShape))
	mux.HandleFunc("/api/vector", authMiddleware(token, srv.handleVector))
	mux.HandleFunc("/api/svg", authMiddleware(token, srv.handleSvg))
	mux.HandleFunc("/api/command", authMiddleware(token, srv.handleCommand))
	mux.HandleFunc("/api/raw", authMiddleware(token, srv.handleRaw))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String(logging.FieldAddress, listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address, useful when bind used port 0.
func (s *apiServer) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleText(w http.ResponseWriter, r *http.Request) {
	var msg protocol.Text
	if !s.decode(w, r, &msg) {
		return
	}
	s.finish(w, s.daemon.SendText(owner(r), msg))
}

func (s *apiServer) handleShape(w http.ResponseWriter, r *http.Request) {
	var msg protocol.Shape
	if !s.decode(w, r, &msg) {
		return
	}
	s.finish(w, s.daemon.SendShape(owner(r), msg))
}

func (s *apiServer) handleVector(w http.ResponseWriter, r *http.Request) {
	var req vectorRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.finish(w, s.daemon.SendVector(owner(r), req.ID, req.Color, req.Points, req.TTL))
}

func (s *apiServer) handleSvg(w http.ResponseWriter, r *http.Request) {
	var msg protocol.Svg
	if !s.decode(w, r, &msg) {
		return
	}
	s.finish(w, s.daemon.SendSvg(owner(r), msg))
}

func (s *apiServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.finish(w, s.daemon.SendCommand(owner(r), req.Command))
}

func (s *apiServer) handleRaw(w http.ResponseWriter, r *http.Request) {
	var msg protocol.Raw
	if !s.decode(w, r, &msg) {
		return
	}
	s.finish(w, s.daemon.SendRaw(owner(r), msg))
}

func owner(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("owner"))
}

// decode reads a JSON POST body into dst, writing the error response itself
// when it returns false.
func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "empty request body")
			return false
		}
		s.writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

func (s *apiServer) finish(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
	case errors.Is(err, protocol.ErrProtocolViolation):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotRunning):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
