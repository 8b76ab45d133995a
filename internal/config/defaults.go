package config

const (
	defaultConfigPath       = "~/.config/hudoverlay/config.toml"
	defaultLogDir           = "~/.local/share/hudoverlay/logs"
	defaultStateDir         = "~/.local/share/hudoverlay"
	defaultRendererHost     = "127.0.0.1"
	defaultRendererPort     = 5010
	defaultRendererWidth    = 1920
	defaultRendererHeight   = 1080
	defaultFontNormal       = 16
	defaultFontLarge        = 20
	defaultDialTimeoutMS    = 5000
	defaultConnectAttempts  = 3
	defaultConnectPauseMS   = 200
	defaultSendAttempts     = 4
	defaultBackoffMinMS     = 200
	defaultBackoffMaxMS     = 450
	defaultProbeIntervalMS  = 500
	defaultProbeAttempts    = 20
	defaultStopTimeoutSecs  = 5
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultNtfyTimeoutSecs  = 10
)

// defaultCandidates mirrors the layouts the renderer build produces.
var defaultCandidates = []string{
	"~/.local/share/hudoverlay/renderer/build/edmc_linux_overlay",
	"~/.local/share/hudoverlay/renderer/edmc_linux_overlay",
	"~/.local/share/hudoverlay/edmc_linux_overlay",
	"~/.local/share/hudoverlay/overlay",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Renderer: Renderer{
			Host:         defaultRendererHost,
			Port:         defaultRendererPort,
			Candidates:   append([]string(nil), defaultCandidates...),
			Width:        defaultRendererWidth,
			Height:       defaultRendererHeight,
			AutoStart:    true,
			IntroMessage: true,
		},
		Fonts: Fonts{
			Normal: defaultFontNormal,
			Large:  defaultFontLarge,
		},
		Transport: Transport{
			DialTimeoutMillis:  defaultDialTimeoutMS,
			ConnectAttempts:    defaultConnectAttempts,
			ConnectPauseMillis: defaultConnectPauseMS,
			SendAttempts:       defaultSendAttempts,
			BackoffMinMillis:   defaultBackoffMinMS,
			BackoffMaxMillis:   defaultBackoffMaxMS,
		},
		Supervisor: Supervisor{
			ProbeIntervalMillis: defaultProbeIntervalMS,
			ProbeAttempts:       defaultProbeAttempts,
			StopTimeoutSeconds:  defaultStopTimeoutSecs,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSecs,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
