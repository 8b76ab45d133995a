package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hudoverlay/internal/config"
	"hudoverlay/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, <-chan captured) {
	t.Helper()
	ch := make(chan captured, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRendererFailed(context.Background(), errors.New("boom"), "launch"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should be a noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, ch := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/hud"
	svc := notifications.NewService(&cfg)

	tests := []struct {
		name         string
		send         func() error
		wantTitle    string
		wantBody     string
		wantTags     string
		wantPriority string
	}{
		{
			name:      "relaunched",
			send:      func() error { return svc.NotifyRendererRelaunched(context.Background(), 77, 3) },
			wantTitle: "HUD overlay - Renderer relaunched",
			wantBody:  "Renderer exited unexpectedly and was relaunched (pid 77, launch #3)",
			wantTags:  "hudoverlay,renderer,relaunched",
		},
		{
			name:         "failed",
			send:         func() error { return svc.NotifyRendererFailed(context.Background(), errors.New("exec: not found"), "auto-start") },
			wantTitle:    "HUD overlay - Renderer failed",
			wantBody:     "Renderer failure during auto-start: exec: not found",
			wantTags:     "hudoverlay,renderer,error",
			wantPriority: "high",
		},
		{
			name:         "test",
			send:         func() error { return svc.TestNotification(context.Background()) },
			wantTitle:    "HUD overlay - Test",
			wantBody:     "Notification system test",
			wantTags:     "hudoverlay,test",
			wantPriority: "low",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.send(); err != nil {
				t.Fatalf("send: %v", err)
			}
			got := <-ch
			if got.title != tc.wantTitle || got.body != tc.wantBody || got.tags != tc.wantTags || got.priority != tc.wantPriority {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
