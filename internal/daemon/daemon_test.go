package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"hudoverlay/internal/config"
	"hudoverlay/internal/daemon"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/protocol"
	"hudoverlay/internal/sendqueue"
	"hudoverlay/internal/testsupport"
)

type recordingSender struct {
	owner string
	sink  *recorder
}

func (s *recordingSender) Send(_ context.Context, frame []byte) bool {
	s.sink.add(s.owner, frame)
	return true
}

func (s *recordingSender) Close() {}

type recorder struct {
	mu     sync.Mutex
	frames map[string][][]byte
}

func newRecorder() *recorder {
	return &recorder{frames: make(map[string][][]byte)}
}

func (r *recorder) factory(owner string) sendqueue.Sender {
	return &recordingSender{owner: owner, sink: r}
}

func (r *recorder) add(owner string, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames[owner] = append(r.frames[owner], frame)
}

// wait polls until owner has n frames and returns their JSON payloads.
func (r *recorder) wait(t *testing.T, owner string, n int) []map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		r.mu.Lock()
		frames := append([][]byte(nil), r.frames[owner]...)
		r.mu.Unlock()
		if len(frames) >= n {
			out := make([]map[string]any, 0, len(frames))
			for _, frame := range frames {
				_, payload, _ := strings.Cut(string(frame), "#")
				var decoded map[string]any
				if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
					t.Fatalf("decode %s: %v", payload, err)
				}
				out = append(out, decoded)
			}
			return out
		}
		if time.Now().After(deadline) {
			t.Fatalf("owner %q has %d frames, want %d", owner, len(frames), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func newDaemon(t *testing.T, cfg *config.Config, opts ...daemon.Option) (*daemon.Daemon, *config.Holder) {
	t.Helper()
	holder := config.NewHolder(cfg, "")
	d, err := daemon.New(holder, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d, holder
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAutoStart())
	rec := newRecorder()
	d, _ := newDaemon(t, cfg, daemon.WithSenderFactory(rec.factory))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("lock path = %q, want %q", status.LockFilePath, cfg.LockPath())
	}
	if status.Renderer.State != "not_started" {
		t.Fatalf("renderer state = %q", status.Renderer.State)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondDaemonIsLockedOut(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAutoStart())
	rec := newRecorder()
	first, _ := newDaemon(t, cfg, daemon.WithSenderFactory(rec.factory))
	second, _ := newDaemon(t, cfg, daemon.WithSenderFactory(rec.factory))

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected second daemon to be refused")
	}
}

func TestSendRequiresRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAutoStart())
	rec := newRecorder()
	d, _ := newDaemon(t, cfg, daemon.WithSenderFactory(rec.factory))

	err := d.SendText("", protocol.Text{ID: "x", Text: "hi", Color: "red"})
	if !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("SendText before Start = %v, want ErrNotRunning", err)
	}
}

func TestMessagesRouteThroughOwnerClients(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithoutAutoStart(),
		testsupport.WithFonts(18, 24, map[string]int{"radar": 30}),
	)
	rec := newRecorder()
	d, _ := newDaemon(t, cfg, daemon.WithSenderFactory(rec.factory))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := d.SendText("radar", protocol.Text{ID: "contact", Text: "bogey", Color: "red"}); err != nil {
		t.Fatalf("SendText radar: %v", err)
	}
	if err := d.SendText("", protocol.Text{ID: "note", Text: "hello", Color: "#00ff00", Size: "large"}); err != nil {
		t.Fatalf("SendText default: %v", err)
	}
	if err := d.SendCommand("", "overlay_off"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	radar := rec.wait(t, "radar", 1)
	token := d.Client("radar").Token()
	if radar[0]["id"] != token+"contact" {
		t.Fatalf("radar id = %v, want %q", radar[0]["id"], token+"contact")
	}
	if radar[0]["font_size"] != float64(30) {
		t.Fatalf("radar font_size = %v, want 30", radar[0]["font_size"])
	}

	def := rec.wait(t, daemon.DefaultOwner, 2)
	if def[0]["font_size"] != float64(24) {
		t.Fatalf("default large font_size = %v, want 24", def[0]["font_size"])
	}
	if def[1]["command"] != "overlay_off" {
		t.Fatalf("command payload = %v", def[1])
	}

	err := d.SendText("radar", protocol.Text{ID: "bad", Text: "x", Color: "not-a-color"})
	if !errors.Is(err, protocol.ErrProtocolViolation) {
		t.Fatalf("invalid color error = %v", err)
	}

	status := d.Status()
	if len(status.Clients) != 2 {
		t.Fatalf("clients = %+v, want 2", status.Clients)
	}
	if status.Clients[0].Owner != daemon.DefaultOwner || status.Clients[1].Owner != "radar" {
		t.Fatalf("clients not sorted by owner: %+v", status.Clients)
	}
	if status.Fonts.Normal != 18 || status.Fonts.Large != 24 || status.Fonts.Overrides != 1 {
		t.Fatalf("font status = %+v", status.Fonts)
	}
}

func TestReloadAppliesLevelAndRecreatesClients(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAutoStart())
	rec := newRecorder()
	levelVar := new(slog.LevelVar)
	d, holder := newDaemon(t, cfg,
		daemon.WithSenderFactory(rec.factory),
		daemon.WithLevelVar(levelVar),
	)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := d.Client("plugin")

	fontsOnly := *cfg
	fontsOnly.Fonts.Normal = 22
	holder.Swap(&fontsOnly)
	if d.Client("plugin") != first {
		t.Fatal("font change should keep existing clients")
	}
	if got := d.Status().Fonts.Normal; got != 22 {
		t.Fatalf("normal font after reload = %d, want 22", got)
	}

	next := fontsOnly
	next.Logging.Debug = true
	next.Transport.SendAttempts = fontsOnly.Transport.SendAttempts + 1
	holder.Swap(&next)

	if levelVar.Level() != slog.LevelDebug {
		t.Fatalf("level = %v, want debug", levelVar.Level())
	}
	if d.Client("plugin") == first {
		t.Fatal("transport change should recreate clients")
	}
	if got := d.Status().Reloads; got != 2 {
		t.Fatalf("reloads = %d, want 2", got)
	}
}

func TestRendererCommandsRequireRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAutoStart())
	d, _ := newDaemon(t, cfg)
	if err := d.StartRenderer(context.Background()); !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("StartRenderer = %v", err)
	}
	if err := d.StopRenderer(context.Background()); !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("StopRenderer = %v", err)
	}
}

func TestStartRendererWithMissingBinaryFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAutoStart())
	d, _ := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := d.StartRenderer(context.Background())
	if err == nil {
		t.Fatal("expected launch failure without a renderer binary")
	}
	if d.Status().Renderer.Alive {
		t.Fatal("renderer should not be alive")
	}
}

func TestDeliversToFakeRenderer(t *testing.T) {
	renderer := testsupport.NewFakeRenderer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithoutAutoStart(),
		testsupport.WithRenderer(renderer),
	)
	d, _ := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.SendShape("", protocol.Shape{ID: "box", Shape: "rect", Color: "red", X: 1, Y: 2, W: 3, H: 4}); err != nil {
		t.Fatalf("SendShape: %v", err)
	}
	got := renderer.NextJSON(3 * time.Second)
	if got == nil {
		t.Fatal("renderer received nothing")
	}
	if got["shape"] != "rect" || got["w"] != float64(3) {
		t.Fatalf("unexpected payload %v", got)
	}
}

type fakeNotifier struct {
	failures   chan string
	relaunches chan int64
}

func (f *fakeNotifier) NotifyRendererRelaunched(_ context.Context, _ int, launches int64) error {
	if f.relaunches != nil {
		f.relaunches <- launches
	}
	return nil
}

func (f *fakeNotifier) NotifyRendererFailed(_ context.Context, err error, label string) error {
	f.failures <- label + ": " + err.Error()
	return nil
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

func TestAutoStartFailureNotifies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	notifier := &fakeNotifier{failures: make(chan string, 1)}
	d, _ := newDaemon(t, cfg, daemon.WithNotifier(notifier))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()
	select {
	case got := <-notifier.failures:
		if !strings.HasPrefix(got, "auto-start: ") {
			t.Fatalf("unexpected failure notification %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected a failure notification")
	}
}
