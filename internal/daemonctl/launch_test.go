package daemonctl

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestDaemonArgs(t *testing.T) {
	got := daemonArgs(LaunchOptions{SocketPath: " /run/h.sock ", ConfigPath: "/etc/h.toml", Diagnostic: true})
	want := []string{"daemon", "--socket", "/run/h.sock", "--config", "/etc/h.toml", "--diagnostic"}
	if !slices.Equal(got, want) {
		t.Fatalf("daemonArgs = %q, want %q", got, want)
	}
	if got := daemonArgs(LaunchOptions{}); !slices.Equal(got, []string{"daemon"}) {
		t.Fatalf("daemonArgs(empty) = %q", got)
	}
}

func TestPollReturnsLastError(t *testing.T) {
	calls := 0
	errBusy := errors.New("busy")
	err := poll(50*time.Millisecond, func() (bool, error) {
		calls++
		return false, errBusy
	})
	if !errors.Is(err, errBusy) {
		t.Fatalf("poll = %v, want busy", err)
	}
	if calls == 0 {
		t.Fatal("check never ran")
	}

	calls = 0
	if err := poll(time.Second, func() (bool, error) { calls++; return calls == 2, nil }); err != nil {
		t.Fatalf("poll: %v", err)
	}
}
