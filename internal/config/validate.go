package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	"hudoverlay/internal/fonts"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateFonts(); err != nil {
		return err
	}
	if err := c.validateTransport(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil {
		return fmt.Errorf("notifications.ntfy_topic: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(c.API.Bind)
	if err != nil {
		return fmt.Errorf("api.bind: %w", err)
	}
	if ip := net.ParseIP(host); (ip == nil || !ip.IsLoopback()) && host != "localhost" && c.API.Token == "" {
		return fmt.Errorf("api.token is required when api.bind (%s) is not a loopback address", c.API.Bind)
	}
	return nil
}

func (c *Config) validateRenderer() error {
	if c.Renderer.Port <= 0 || c.Renderer.Port > 65535 {
		return fmt.Errorf("renderer.port must be between 1 and 65535, got %d", c.Renderer.Port)
	}
	if c.Renderer.Width <= 0 || c.Renderer.Height <= 0 {
		return fmt.Errorf("renderer.width and renderer.height must be positive, got %dx%d", c.Renderer.Width, c.Renderer.Height)
	}
	if c.Renderer.Command == "" && len(c.Renderer.Candidates) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("renderer.command or renderer.candidates is required. Set HUDOVERLAY_RENDERER or edit %s (create with 'hudoverlay config init')", defaultPath)
	}
	return nil
}

// validateFonts rejects negative sizes. Sizes between 0 and the resolver's
// threshold are accepted and skipped at resolution time.
func (c *Config) validateFonts() error {
	if c.Fonts.Normal < 0 || c.Fonts.Large < 0 {
		return errors.New("fonts.normal and fonts.large must not be negative")
	}
	for key, size := range c.Fonts.Overrides {
		if size < 0 {
			return fmt.Errorf("fonts.overrides[%q] must not be negative", key)
		}
	}
	return nil
}

func (c *Config) validateTransport() error {
	if c.Transport.BackoffMaxMillis < c.Transport.BackoffMinMillis {
		return fmt.Errorf("transport.backoff_max_ms (%d) must be >= transport.backoff_min_ms (%d)",
			c.Transport.BackoffMaxMillis, c.Transport.BackoffMinMillis)
	}
	return nil
}

func (c *Config) validateLogging() error {
	for component, level := range c.Logging.ComponentOverrides {
		switch level {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("logging.component_overrides[%q]: unsupported level %q", component, level)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// Warnings lists settings that are valid but will not behave as written.
func (c *Config) Warnings() []string {
	var out []string
	if c.Fonts.Normal > 0 && c.Fonts.Normal < fonts.MinValidSize {
		out = append(out, fmt.Sprintf("fonts.normal=%d is below %d and will fall back to %d", c.Fonts.Normal, fonts.MinValidSize, fonts.BuiltinNormal))
	}
	if c.Fonts.Large > 0 && c.Fonts.Large < fonts.MinValidSize {
		out = append(out, fmt.Sprintf("fonts.large=%d is below %d and will fall back to %d", c.Fonts.Large, fonts.MinValidSize, fonts.BuiltinLarge))
	}
	keys := make([]string, 0, len(c.Fonts.Overrides))
	for key := range c.Fonts.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if size := c.Fonts.Overrides[key]; size < fonts.MinValidSize {
			out = append(out, fmt.Sprintf("fonts.overrides[%q]=%d is below %d and is ignored", key, size, fonts.MinValidSize))
		}
	}
	return out
}
