package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"hudoverlay/internal/config"
	"hudoverlay/internal/daemon"
	"hudoverlay/internal/ipc"
	"hudoverlay/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Diagnostic  bool
	// ConfigPath is the file watched for reloads. Empty disables watching.
	ConfigPath string
	// SocketPath overrides the configured IPC socket.
	SocketPath string
}

// Run starts the hudoverlay daemon runtime loop and returns after SIGINT,
// SIGTERM or an IPC shutdown request.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("hudoverlay-%s.log", runID))
	rendererLogPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("renderer-%s.log", runID))

	var sessionID string
	var debugLogPath string
	if opts.Diagnostic {
		sessionID = uuid.NewString()
		debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
		if err := os.MkdirAll(debugDir, 0o755); err != nil {
			return fmt.Errorf("create debug log directory: %w", err)
		}
		debugLogPath = filepath.Join(debugDir, fmt.Sprintf("hudoverlay-%s.log", runID))
	}

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.LogLevel()
	}
	levelVar := new(slog.LevelVar)
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		LevelVar:         levelVar,
		SessionID:        sessionID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if opts.Diagnostic {
		debugLogger, debugErr := logging.New(logging.Options{
			Level:            "debug",
			Format:           "json",
			OutputPaths:      []string{debugLogPath},
			ErrorOutputPaths: []string{debugLogPath},
			Development:      true,
			SessionID:        sessionID,
		})
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", debugErr)
		} else {
			logger = logging.TeeLogger(logger, debugLogger.Handler())
			if err := ensureCurrentLogPointer(filepath.Join(cfg.Paths.LogDir, "debug"), debugLogPath); err != nil {
				fmt.Fprintf(os.Stderr, "warn: unable to update debug/hudoverlay.log link: %v\n", err)
			}
		}
		logger.Info("diagnostic mode enabled",
			logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
			logging.String(logging.FieldSessionID, sessionID),
			logging.String("debug_log_path", debugLogPath),
		)
	}

	logRendererSnapshot(logger, cfg)
	for _, warning := range cfg.Warnings() {
		logging.WarnWithContext(logger, warning, "config_warning",
			logging.String(logging.FieldErrorHint, "run `hudoverlay config validate` for details"))
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update hudoverlay.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "hudoverlay-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "renderer-*.log", Exclude: []string{rendererLogPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: "hudoverlay-*.log", Exclude: []string{debugLogPath}},
	)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rendererLog, err := os.OpenFile(rendererLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open renderer log: %w", err)
	}
	defer rendererLog.Close()

	holder := config.NewHolder(cfg, opts.ConfigPath)
	d, err := daemon.New(holder, logger,
		daemon.WithLevelVar(levelVar),
		daemon.WithLogPath(logPath),
		daemon.WithRendererOutput(rendererLog),
	)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if opts.ConfigPath != "" {
		if err := config.Watch(signalCtx, holder, logger); err != nil {
			logging.WarnWithContext(logger, "config watch unavailable", "config_watch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "configuration edits need a daemon restart"),
			)
		}
	}

	socketPath := opts.SocketPath
	if strings.TrimSpace(socketPath) == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger, ipc.WithShutdown(cancel))
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory and api.bind"),
			logging.String(logging.FieldImpact, "overlay requests are rejected until `hudoverlay start`"),
		)
	}

	<-signalCtx.Done()
	logger.Info("hudoverlay daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "hudoverlay.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logRendererSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	argv, err := cfg.LaunchSpec().Command()
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "renderer_snapshot"),
		logging.String(logging.FieldAddress, cfg.TransportOptions().Address()),
		logging.Bool("auto_start", cfg.Renderer.AutoStart),
		logging.Bool("exclusive", cfg.Supervisor.ExclusiveRenderer),
		logging.Int("font_normal", cfg.Fonts.Normal),
		logging.Int("font_large", cfg.Fonts.Large),
		logging.Int("font_overrides", len(cfg.Fonts.Overrides)),
	}
	if err != nil {
		attrs = append(attrs, logging.Bool("renderer_available", false), logging.Error(err))
	} else {
		attrs = append(attrs, logging.Bool("renderer_available", true), logging.String("renderer_command", strings.Join(argv, " ")))
	}
	logger.Info("renderer snapshot", logging.Args(attrs...)...)
}
