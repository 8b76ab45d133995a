package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hudoverlay/internal/config"
	"hudoverlay/internal/daemon"
	"hudoverlay/internal/ipc"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	renderer   *testsupport.FakeRenderer
	socketPath string
	configPath string
	logPath    string
}

func setupCLITestEnv(t *testing.T, extra ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	renderer := testsupport.NewFakeRenderer(t)
	opts := append([]testsupport.ConfigOption{
		testsupport.WithoutAutoStart(),
		testsupport.WithRenderer(renderer),
		testsupport.WithFonts(18, 0, map[string]int{"radar": 30}),
	}, extra...)
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "hudoverlay.toml")
	writeTestConfig(t, configPath, cfg)

	logPath := filepath.Join(cfg.Paths.LogDir, "hudoverlay-test.log")
	if err := os.WriteFile(logPath, []byte("first line\nsecond line\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	logger := logging.NewNop()
	d, err := daemon.New(config.NewHolder(cfg, configPath), logger, daemon.WithLogPath(logPath))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() { srv.Close() })

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		renderer:   renderer,
		socketPath: socket,
		configPath: configPath,
		logPath:    logPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--socket", env.socketPath, "--config", env.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (env *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("hudoverlay %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}
