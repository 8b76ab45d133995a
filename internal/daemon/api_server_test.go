package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hudoverlay/internal/config"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/sendqueue"
	"hudoverlay/internal/testsupport"
)

type discardSender struct{}

func (discardSender) Send(context.Context, []byte) bool { return true }
func (discardSender) Close()                            {}

func newTestAPI(t *testing.T, token string) (*apiServer, *Daemon) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithoutAutoStart())
	cfg.API.Bind = "127.0.0.1:0"
	cfg.API.Token = token
	d, err := New(config.NewHolder(cfg, ""), logging.NewNop(),
		WithSenderFactory(func(string) sendqueue.Sender { return discardSender{} }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if d.api == nil || d.api.Addr() == "" {
		t.Fatal("api server not listening")
	}
	return d.api, d
}

func serve(srv *apiServer, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, req)
	return w
}

func TestAPIServerStatus(t *testing.T) {
	srv, _ := newTestAPI(t, "")

	w := serve(srv, http.MethodGet, "/api/status", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp Status
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Running {
		t.Fatal("expected running status")
	}

	w = serve(srv, http.MethodPost, "/api/status", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d", w.Code)
	}
}

func TestAPIServerSendEndpoints(t *testing.T) {
	srv, d := newTestAPI(t, "")

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"text", "/api/text?owner=radar", `{"id":"a","text":"hi","color":"red","x":1,"y":2}`, http.StatusAccepted},
		{"text bad color", "/api/text", `{"id":"a","text":"hi","color":"nope"}`, http.StatusUnprocessableEntity},
		{"shape", "/api/shape", `{"id":"b","shape":"rect","color":"red","w":5,"h":5}`, http.StatusAccepted},
		{"vector", "/api/vector", `{"id":"v","color":"green","points":[{"x":1,"y":1},{"x":5,"y":5,"marker":"cross"}]}`, http.StatusAccepted},
		{"svg", "/api/svg", `{"id":"s","svg":"<svg/>"}`, http.StatusAccepted},
		{"command", "/api/command", `{"command":"overlay_on"}`, http.StatusAccepted},
		{"empty command", "/api/command", `{"command":""}`, http.StatusUnprocessableEntity},
		{"raw", "/api/raw", `{"id":"r","text":"raw","color":"red"}`, http.StatusAccepted},
		{"invalid json", "/api/text", `{`, http.StatusBadRequest},
		{"empty body", "/api/text", ``, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(srv, http.MethodPost, tc.target, tc.body, "")
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}

	owners := map[string]bool{}
	for _, client := range d.Status().Clients {
		owners[client.Owner] = true
	}
	if !owners["radar"] || !owners[DefaultOwner] {
		t.Fatalf("expected radar and default clients, got %v", owners)
	}

	w := serve(srv, http.MethodGet, "/api/text", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET text = %d", w.Code)
	}
}

func TestAPIServerRequiresToken(t *testing.T) {
	srv, _ := newTestAPI(t, "s3cret")

	if w := serve(srv, http.MethodGet, "/api/status", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token = %d", w.Code)
	}
	if w := serve(srv, http.MethodGet, "/api/status", "", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token = %d", w.Code)
	}
	if w := serve(srv, http.MethodGet, "/api/status", "", "s3cret"); w.Code != http.StatusOK {
		t.Fatalf("valid token = %d", w.Code)
	}
}

func TestAPIServerDisabledWithoutBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv, err := newAPIServer(cfg, &Daemon{}, logging.NewNop())
	if err != nil || srv != nil {
		t.Fatalf("expected nil server, got %v, %v", srv, err)
	}
}
