package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"hudoverlay/internal/daemonctl"
	"hudoverlay/internal/testsupport"
)

func TestProcessInfoWithoutSocket(t *testing.T) {
	alive, pid, err := daemonctl.ProcessInfo(filepath.Join(t.TempDir(), "missing.sock"))
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("alive=%v pid=%d for missing socket", alive, pid)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(cfg.SocketPath(), cfg, 100*time.Millisecond)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("StopAndTerminate = %v, want ErrDaemonNotRunning", err)
	}
}

func TestForceKillRefusesSelf(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "hudoverlay.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill the current process")
	}
}

func TestForceKillWithoutPID(t *testing.T) {
	if _, err := daemonctl.ForceKillProcess(filepath.Join(t.TempDir(), "none.pid"), "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
}

func TestDeriveStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := daemonctl.DeriveStateDir("/run/x/hudoverlay.lock", cfg); got != "/run/x" {
		t.Fatalf("from lock path: %q", got)
	}
	if got := daemonctl.DeriveStateDir("", cfg); got != cfg.Paths.StateDir {
		t.Fatalf("from config: %q", got)
	}
	if got := daemonctl.DeriveStateDir("", nil); got != "" {
		t.Fatalf("without hints: %q", got)
	}
}

func TestStatusSnapshotOffline(t *testing.T) {
	renderer := testsupport.NewFakeRenderer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithRenderer(renderer),
		testsupport.WithStubRenderer(),
		testsupport.WithFonts(18, 0, map[string]int{"a": 10}),
	)

	snap, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.DaemonReachable {
		t.Fatal("daemon should be unreachable")
	}
	if !snap.RendererReachable {
		t.Fatalf("fake renderer at %s should be reachable", snap.RendererAddress)
	}
	if len(snap.RendererCommand) == 0 || snap.RendererError != "" {
		t.Fatalf("renderer command %v, error %q", snap.RendererCommand, snap.RendererError)
	}
	if snap.Fonts.Normal != 18 || snap.Fonts.Large != 20 || snap.Fonts.Overrides != 1 {
		t.Fatalf("fonts %#v", snap.Fonts)
	}

	renderer.Close()
	snap, err = daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.RendererReachable {
		t.Fatal("closed renderer should be unreachable")
	}
}
