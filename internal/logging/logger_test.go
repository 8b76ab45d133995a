package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hudoverlay/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerWritesComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "transport").Info("frame sent",
		logging.String(logging.FieldOwner, "radar"),
		logging.String(logging.FieldAddress, "127.0.0.1:5010"),
		logging.Int("bytes", 42),
	)

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO [transport owner=radar] frame sent") {
		t.Fatalf("expected component header, got %q", content)
	}
	if !strings.Contains(content, "address=127.0.0.1:5010") || !strings.Contains(content, "bytes=42") {
		t.Fatalf("expected key=value fields, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestLevelVarSwitchesVerbosityAtRuntime(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	levelVar := new(slog.LevelVar)
	logger, err := logging.New(logging.Options{
		Level:       "info",
		OutputPaths: []string{logPath},
		LevelVar:    levelVar,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden debug line")
	levelVar.Set(slog.LevelDebug)
	logger.Debug("visible debug line")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden debug line") {
		t.Fatalf("debug line logged before level change: %q", content)
	}
	if !strings.Contains(content, "visible debug line") {
		t.Fatalf("debug line missing after level change: %q", content)
	}
}

func TestJSONLoggerUsesShortKeysAndSession(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
		SessionID:   "session-1",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("renderer not ready", logging.Int(logging.FieldPID, 77))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "renderer not ready" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", entry)
	}
	if entry[logging.FieldSessionID] != "session-1" {
		t.Fatalf("expected session id, got %#v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := logging.ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestTeeLoggerDuplicatesIntoDebugHandler(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := logging.TeeLogger(base, debug)
	logger.Debug("probe attempt")
	logger.Info("renderer ready")

	if strings.Contains(infoBuf.String(), "probe attempt") {
		t.Fatalf("info handler received debug record: %q", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "probe attempt") || !strings.Contains(debugBuf.String(), "renderer ready") {
		t.Fatalf("debug handler missing records: %q", debugBuf.String())
	}
}

func TestWithLevelOverrideRaisesMinimum(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := logging.WithLevelOverride(base, slog.LevelWarn)

	logger.Info("suppressed")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "suppressed") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	relaxed := logging.WithLevelOverride(logger, slog.LevelInfo)
	relaxed.Info("replaced override")
	if !strings.Contains(buf.String(), "replaced override") {
		t.Fatalf("second override should replace the first: %q", buf.String())
	}
}

func TestWithLevelOverrideCannotLowerBase(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logging.WithLevelOverride(base, slog.LevelDebug).Info("still hidden")
	if buf.Len() != 0 {
		t.Fatalf("override lowered the base level: %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logging.WarnWithContext(logger, "send failed", "overlay_send_failed")

	out := buf.String()
	for _, key := range []string{logging.FieldEventType + "=overlay_send_failed", logging.FieldErrorHint + "=", logging.FieldImpact + "="} {
		if !strings.Contains(out, key) {
			t.Fatalf("expected %q in %q", key, out)
		}
	}
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "hudoverlay-old.log")
	keepPath := filepath.Join(dir, "hudoverlay-current.log")
	for _, p := range []string{oldPath, keepPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(keepPath, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 7,
		logging.RetentionTarget{Dir: dir, Pattern: "hudoverlay-*.log", Exclude: []string{keepPath}},
	)
	if removed != 1 {
		t.Fatalf("removed %d files, want 1", removed)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	if _, err := os.Stat(keepPath); err != nil {
		t.Fatalf("expected excluded log kept: %v", err)
	}
}
