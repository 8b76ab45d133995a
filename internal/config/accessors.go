package config

import (
	"time"

	"hudoverlay/internal/fonts"
	"hudoverlay/internal/supervisor"
	"hudoverlay/internal/transport"
)

// FontConfig implements fonts.Source.
func (c *Config) FontConfig() fonts.Config {
	overrides := make(map[string]int, len(c.Fonts.Overrides))
	for key, size := range c.Fonts.Overrides {
		overrides[key] = size
	}
	return fonts.Config{Normal: c.Fonts.Normal, Large: c.Fonts.Large, Overrides: overrides}
}

// LaunchSpec returns the renderer invocation.
func (c *Config) LaunchSpec() supervisor.LaunchSpec {
	return supervisor.LaunchSpec{
		CommandLine: c.Renderer.Command,
		Candidates:  append([]string(nil), c.Renderer.Candidates...),
		Geometry: supervisor.Geometry{
			X:      c.Renderer.X,
			Y:      c.Renderer.Y,
			Width:  c.Renderer.Width,
			Height: c.Renderer.Height,
		},
		TrackProcess: c.Renderer.TrackProcess,
	}
}

// TransportOptions returns the renderer endpoint and retry budget.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		Host:            c.Renderer.Host,
		Port:            c.Renderer.Port,
		DialTimeout:     millis(c.Transport.DialTimeoutMillis),
		ConnectAttempts: c.Transport.ConnectAttempts,
		ConnectPause:    millis(c.Transport.ConnectPauseMillis),
		SendAttempts:    c.Transport.SendAttempts,
		Backoff: transport.Backoff{
			Min: millis(c.Transport.BackoffMinMillis),
			Max: millis(c.Transport.BackoffMaxMillis),
		},
	}
}

// SupervisorOptions returns probe and stop timing for the renderer.
func (c *Config) SupervisorOptions() supervisor.Options {
	return supervisor.Options{
		Host:          c.Renderer.Host,
		Port:          c.Renderer.Port,
		ProbeInterval: millis(c.Supervisor.ProbeIntervalMillis),
		ProbeAttempts: c.Supervisor.ProbeAttempts,
		StopTimeout:   time.Duration(c.Supervisor.StopTimeoutSeconds) * time.Second,
		LockPath:      c.RendererLockPath(),
	}
}

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
