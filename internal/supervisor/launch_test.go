package supervisor_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"hudoverlay/internal/supervisor"
)

func TestLaunchSpecUsesFirstExecutableCandidate(t *testing.T) {
	dir := t.TempDir()
	notExec := filepath.Join(dir, "plain")
	binary := filepath.Join(dir, "overlay")
	if err := os.WriteFile(notExec, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	spec := supervisor.LaunchSpec{
		Candidates:   []string{filepath.Join(dir, "missing"), notExec, dir, binary},
		Geometry:     supervisor.Geometry{X: 10, Y: 20, Width: 1280, Height: 720},
		TrackProcess: "EliteDangerous64.exe",
	}
	argv, err := spec.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := []string{binary, "10", "20", "1280", "720", "EliteDangerous64.exe"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
}

func TestLaunchSpecCommandLine(t *testing.T) {
	spec := supervisor.LaunchSpec{
		CommandLine: `"/opt/hud renderer/overlay" --vsync`,
		Candidates:  []string{"/does/not/matter"},
		Geometry:    supervisor.Geometry{Width: 1920, Height: 1080},
	}
	argv, err := spec.Command()
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	want := []string{"/opt/hud renderer/overlay", "--vsync", "0", "0", "1920", "1080"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}

	spec.CommandLine = `"unterminated`
	if _, err := spec.Command(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLaunchSpecWithoutBinary(t *testing.T) {
	_, err := supervisor.LaunchSpec{Candidates: []string{"/nope/a", ""}}.Command()
	if !errors.Is(err, supervisor.ErrBinaryNotFound) {
		t.Fatalf("err = %v, want ErrBinaryNotFound", err)
	}
}
