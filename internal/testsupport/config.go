package testsupport

import (
	"path/filepath"
	"testing"

	"hudoverlay/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Renderer.Candidates = []string{filepath.Join(base, "bin", "overlay")}
	cfgVal.Renderer.IntroMessage = false
	cfgVal.Supervisor.ProbeIntervalMillis = 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithRenderer points the config at a listening fake renderer.
func WithRenderer(r *FakeRenderer) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renderer.Host = r.Host()
		b.cfg.Renderer.Port = r.Port()
	}
}

// WithRendererCommand sets the renderer command line.
func WithRendererCommand(command string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renderer.Command = command
	}
}

// WithStubRenderer writes an executable that exits immediately and makes it
// the only renderer candidate.
func WithStubRenderer() ConfigOption {
	return func(b *configBuilder) {
		path := WriteExecutable(b.t, filepath.Join(b.baseDir, "bin", "overlay"), "")
		b.cfg.Renderer.Candidates = []string{path}
	}
}

// WithFonts sets global font sizes and per-owner overrides.
func WithFonts(normal, large int, overrides map[string]int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fonts.Normal = normal
		b.cfg.Fonts.Large = large
		b.cfg.Fonts.Overrides = overrides
	}
}

// WithoutAutoStart keeps the daemon from launching the renderer on start.
func WithoutAutoStart() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renderer.AutoStart = false
	}
}

// WithNtfyTopic enables alerts to the given topic URL.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
