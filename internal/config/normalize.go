package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRenderer()
	c.normalizeFonts()
	c.normalizeTransport()
	c.normalizeSupervisor()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRenderer() {
	c.Renderer.Host = strings.TrimSpace(c.Renderer.Host)
	if c.Renderer.Host == "" {
		c.Renderer.Host = defaultRendererHost
	}
	if c.Renderer.Port == 0 {
		c.Renderer.Port = defaultRendererPort
	}
	c.Renderer.Command = strings.TrimSpace(c.Renderer.Command)
	if c.Renderer.Command == "" {
		if value, ok := os.LookupEnv("HUDOVERLAY_RENDERER"); ok {
			c.Renderer.Command = strings.TrimSpace(value)
		}
	}
	candidates := make([]string, 0, len(c.Renderer.Candidates))
	for _, candidate := range c.Renderer.Candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if expanded, err := expandPath(candidate); err == nil {
			candidate = expanded
		}
		candidates = append(candidates, candidate)
	}
	c.Renderer.Candidates = candidates
	c.Renderer.TrackProcess = strings.TrimSpace(c.Renderer.TrackProcess)
}

func (c *Config) normalizeFonts() {
	if len(c.Fonts.Overrides) == 0 {
		c.Fonts.Overrides = nil
		return
	}
	overrides := make(map[string]int, len(c.Fonts.Overrides))
	for key, size := range c.Fonts.Overrides {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		overrides[key] = size
	}
	c.Fonts.Overrides = overrides
}

func (c *Config) normalizeTransport() {
	if c.Transport.DialTimeoutMillis <= 0 {
		c.Transport.DialTimeoutMillis = defaultDialTimeoutMS
	}
	if c.Transport.ConnectAttempts <= 0 {
		c.Transport.ConnectAttempts = defaultConnectAttempts
	}
	if c.Transport.ConnectPauseMillis <= 0 {
		c.Transport.ConnectPauseMillis = defaultConnectPauseMS
	}
	if c.Transport.SendAttempts <= 0 {
		c.Transport.SendAttempts = defaultSendAttempts
	}
	if c.Transport.BackoffMinMillis <= 0 && c.Transport.BackoffMaxMillis <= 0 {
		c.Transport.BackoffMinMillis = defaultBackoffMinMS
		c.Transport.BackoffMaxMillis = defaultBackoffMaxMS
	}
}

func (c *Config) normalizeSupervisor() {
	if c.Supervisor.ProbeIntervalMillis <= 0 {
		c.Supervisor.ProbeIntervalMillis = defaultProbeIntervalMS
	}
	if c.Supervisor.ProbeAttempts <= 0 {
		c.Supervisor.ProbeAttempts = defaultProbeAttempts
	}
	if c.Supervisor.StopTimeoutSeconds <= 0 {
		c.Supervisor.StopTimeoutSeconds = defaultStopTimeoutSecs
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("HUDOVERLAY_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSecs
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if value, ok := os.LookupEnv("HUDOVERLAY_DEBUG"); ok {
		if debug, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			c.Logging.Debug = debug
		}
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if len(c.Logging.ComponentOverrides) == 0 {
		c.Logging.ComponentOverrides = nil
	} else {
		overrides := make(map[string]string, len(c.Logging.ComponentOverrides))
		for component, level := range c.Logging.ComponentOverrides {
			component = strings.ToLower(strings.TrimSpace(component))
			level = strings.ToLower(strings.TrimSpace(level))
			if component == "" || level == "" {
				continue
			}
			overrides[component] = level
		}
		c.Logging.ComponentOverrides = overrides
	}
}
