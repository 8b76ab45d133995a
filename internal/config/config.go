package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Renderer describes where the renderer listens and how it is launched.
type Renderer struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	Command      string   `toml:"command"`
	Candidates   []string `toml:"candidates"`
	X            int      `toml:"x"`
	Y            int      `toml:"y"`
	Width        int      `toml:"width"`
	Height       int      `toml:"height"`
	TrackProcess string   `toml:"track_process"`
	AutoStart    bool     `toml:"auto_start"`
	IntroMessage bool     `toml:"intro_message"`
}

// Fonts contains default font sizes and per-owner overrides. Override keys
// are matched as substrings of the caller identity.
type Fonts struct {
	Normal    int            `toml:"normal"`
	Large     int            `toml:"large"`
	Overrides map[string]int `toml:"overrides"`
}

// Transport contains the renderer connection retry budget.
type Transport struct {
	DialTimeoutMillis  int `toml:"dial_timeout_ms"`
	ConnectAttempts    int `toml:"connect_attempts"`
	ConnectPauseMillis int `toml:"connect_pause_ms"`
	SendAttempts       int `toml:"send_attempts"`
	BackoffMinMillis   int `toml:"backoff_min_ms"`
	BackoffMaxMillis   int `toml:"backoff_max_ms"`
}

// Supervisor contains renderer readiness and shutdown timing.
type Supervisor struct {
	ProbeIntervalMillis int  `toml:"probe_interval_ms"`
	ProbeAttempts       int  `toml:"probe_attempts"`
	StopTimeoutSeconds  int  `toml:"stop_timeout_seconds"`
	ExclusiveRenderer   bool `toml:"exclusive_renderer"`
}

// API contains the optional loopback HTTP endpoint for draw requests.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Notifications contains the optional ntfy topic for renderer alerts.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format             string            `toml:"format"`
	Level              string            `toml:"level"`
	Debug              bool              `toml:"debug"`
	RetentionDays      int               `toml:"retention_days"`
	ComponentOverrides map[string]string `toml:"component_overrides"`
}

// Config encapsulates all configuration values for hudoverlay.
//
// Configuration sections by subsystem:
//   - Paths: log and runtime state directories
//   - Renderer: endpoint, binary lookup and window geometry
//   - Fonts: default sizes and per-owner overrides
//   - Transport: connect and send retry budget
//   - Supervisor: readiness probe and stop timing
//   - API: optional HTTP endpoint for callers that cannot use the CLI
//   - Notifications: ntfy alerts when the renderer fails
//   - Logging: log format, level, debug switch and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Renderer      Renderer      `toml:"renderer"`
	Fonts         Fonts         `toml:"fonts"`
	Transport     Transport     `toml:"transport"`
	Supervisor    Supervisor    `toml:"supervisor"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config: %s", strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config: line %d column %d: %w", row, col, err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hudoverlay.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SocketPath is the daemon's IPC socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "hudoverlay.sock")
}

// PIDPath is the daemon's pid file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "hudoverlay.pid")
}

// LockPath guards against two daemons sharing a state directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "hudoverlay.lock")
}

// RendererLockPath is held by whichever process owns the renderer when
// supervisor.exclusive_renderer is enabled. Empty otherwise.
func (c *Config) RendererLockPath() string {
	if !c.Supervisor.ExclusiveRenderer {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "renderer.lock")
}

// LogLevel returns the effective level; the debug switch wins over level.
func (c *Config) LogLevel() string {
	if c.Logging.Debug {
		return "debug"
	}
	return c.Logging.Level
}

// RendererChanged reports whether switching from c to next requires the
// renderer to be restarted.
func (c *Config) RendererChanged(next *Config) bool {
	if c == nil || next == nil {
		return c != next
	}
	a, b := c.Renderer, next.Renderer
	return a.Host != b.Host ||
		a.Port != b.Port ||
		a.Command != b.Command ||
		!slices.Equal(a.Candidates, b.Candidates) ||
		a.X != b.X || a.Y != b.Y ||
		a.Width != b.Width || a.Height != b.Height ||
		a.TrackProcess != b.TrackProcess
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
