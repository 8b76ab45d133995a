package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"hudoverlay/internal/config"
	"hudoverlay/internal/fonts"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/notifications"
	"hudoverlay/internal/overlay"
	"hudoverlay/internal/protocol"
	"hudoverlay/internal/supervisor"
)

// DefaultOwner identifies messages sent without an explicit owner.
const DefaultOwner = "hudoverlay"

// ErrNotRunning is returned by drawing operations before Start or after Stop.
var ErrNotRunning = errors.New("daemon not running")

// introMessage is shown once each time the renderer becomes ready.
var introMessage = protocol.Text{
	ID:    "intro",
	Text:  "HUD overlay is ready",
	Color: "yellow",
	X:     30,
	Y:     165,
	TTL:   10,
	Size:  "normal",
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithLevelVar lets configuration reloads switch the shared log level.
func WithLevelVar(levelVar *slog.LevelVar) Option {
	return func(d *Daemon) { d.levelVar = levelVar }
}

// WithLogPath records the active log file for status output.
func WithLogPath(path string) Option {
	return func(d *Daemon) { d.logPath = path }
}

// WithRendererOutput sends the renderer's stdout and stderr to w.
func WithRendererOutput(w io.Writer) Option {
	return func(d *Daemon) { d.rendererOutput = w }
}

// WithSenderFactory replaces the TCP transport used by overlay clients.
func WithSenderFactory(factory overlay.SenderFactory) Option {
	return func(d *Daemon) { d.senders = factory }
}

// WithNotifier replaces the ntfy service built from configuration.
func WithNotifier(svc notifications.Service) Option {
	return func(d *Daemon) {
		d.notifier = svc
		d.fixedNotifier = svc != nil
	}
}

// Daemon owns the renderer and the overlay clients drawing on it.
type Daemon struct {
	holder   *config.Holder
	base     *slog.Logger
	logger   *slog.Logger
	levelVar *slog.LevelVar
	logPath  string
	senders  overlay.SenderFactory

	rendererOutput io.Writer

	notifier      notifications.Service
	fixedNotifier bool

	supervisor *supervisor.Supervisor

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	runtime *overlay.Runtime
	clients map[string]*overlay.Client

	api *apiServer

	running   atomic.Bool
	reloads   atomic.Int64
	startedAt time.Time
	// ctx and cancel are guarded by mu.
	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a daemon from the holder's current configuration.
func New(holder *config.Holder, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if holder == nil || holder.Current() == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg := holder.Current()
	d := &Daemon{
		holder:   holder,
		base:     logger,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		clients:  make(map[string]*overlay.Client),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}
	d.logger = logging.NewComponentLogger(d.componentLogger(cfg, "daemon"), "daemon")
	d.supervisor = supervisor.New(cfg.LaunchSpec(), d.supervisorOptions(cfg), d.componentLogger(cfg, "supervisor"))
	d.runtime = d.newRuntime(cfg)
	holder.OnChange(d.applyConfig)
	return d, nil
}

func (d *Daemon) componentLogger(cfg *config.Config, component string) *slog.Logger {
	level, ok := cfg.Logging.ComponentOverrides[component]
	if !ok || strings.TrimSpace(level) == "" {
		return d.base
	}
	return logging.WithLevelOverride(d.base, logging.ParseLevel(level))
}

func (d *Daemon) supervisorOptions(cfg *config.Config) supervisor.Options {
	opts := cfg.SupervisorOptions()
	opts.Output = d.rendererOutput
	opts.OnReady = d.onRendererReady
	return opts
}

func (d *Daemon) newRuntime(cfg *config.Config) *overlay.Runtime {
	var opts []overlay.RuntimeOption
	if d.senders != nil {
		opts = append(opts, overlay.WithSenderFactory(d.senders))
	}
	return overlay.NewRuntime(d.supervisor, cfg.TransportOptions(), d.holder, d.componentLogger(cfg, "overlay"), opts...)
}

// Start acquires the daemon lock, starts the API server and, when enabled,
// launches the renderer in the background.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another hudoverlay daemon instance is already running")
	}

	cfg := d.holder.Current()
	runCtx, cancel := context.WithCancel(ctx)

	api, err := newAPIServer(cfg, d, d.componentLogger(cfg, "api"))
	if err == nil {
		err = api.start(runCtx)
	}
	if err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start api server: %w", err)
	}
	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.mu.Unlock()
	d.api = api

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("hudoverlay daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldAddress, cfg.TransportOptions().Address()),
	)

	if cfg.Renderer.AutoStart {
		go func(ctx context.Context) {
			if err := d.StartRenderer(ctx); err != nil && ctx.Err() == nil {
				logging.WarnWithContext(d.logger, "renderer auto-start failed", "renderer_autostart",
					logging.Error(err),
					logging.String(logging.FieldImpact, "overlay messages will retry the launch on demand"),
					logging.String(logging.FieldErrorHint, "check renderer.command or renderer.candidates"),
				)
				d.notify(func(ctx context.Context, svc notifications.Service) error {
					return svc.NotifyRendererFailed(ctx, err, "auto-start")
				})
			}
		}(runCtx)
	}
	return nil
}

// Stop asks the renderer to exit, drains every client and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.running.Store(false)

	d.mu.Lock()
	stopRun := d.cancel
	d.ctx, d.cancel = nil, nil
	d.mu.Unlock()
	if stopRun != nil {
		stopRun()
	}
	d.api.stop()
	d.api = nil

	cfg := d.holder.Current()
	timeout := cfg.SupervisorOptions().StopTimeout
	if timeout <= 0 {
		timeout = supervisor.DefaultStopTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout+2*time.Second)
	defer cancel()
	if err := d.stopRenderer(ctx); err != nil {
		d.logger.Warn("renderer stop failed", logging.Error(err))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("hudoverlay daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogPath returns the active log file, if any.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// StartRenderer launches the renderer unless it is already accepting
// connections.
func (d *Daemon) StartRenderer(ctx context.Context) error {
	if !d.running.Load() {
		return ErrNotRunning
	}
	return d.supervisor.EnsureStarted(ctx, nil)
}

// StopRenderer sends exit to the renderer, closes every client and stops
// the process if this daemon launched it.
func (d *Daemon) StopRenderer(ctx context.Context) error {
	if !d.running.Load() {
		return ErrNotRunning
	}
	return d.stopRenderer(ctx)
}

func (d *Daemon) stopRenderer(ctx context.Context) error {
	if d.supervisor.IsAlive() {
		if err := d.Client(DefaultOwner).RequestExit(); err != nil {
			d.logger.Debug("exit request failed", logging.Error(err))
		}
	}
	d.resetClients()
	return d.supervisor.Stop(ctx)
}

// RestartRenderer stops and relaunches the renderer.
func (d *Daemon) RestartRenderer(ctx context.Context) error {
	if err := d.StopRenderer(ctx); err != nil {
		return fmt.Errorf("stop renderer: %w", err)
	}
	return d.StartRenderer(ctx)
}

// onRendererReady runs for every launch, including the ones a client's
// transport triggers when it finds the renderer gone.
func (d *Daemon) onRendererReady(ev supervisor.ReadyEvent) {
	if !d.running.Load() {
		return
	}
	cfg := d.holder.Current()
	d.logger.Info("renderer ready",
		logging.Int(logging.FieldPID, ev.PID),
		logging.Int64("launches", ev.Launches),
		logging.Bool("recovered", ev.Recovered),
	)
	if ev.Recovered {
		d.notify(func(ctx context.Context, svc notifications.Service) error {
			return svc.NotifyRendererRelaunched(ctx, ev.PID, ev.Launches)
		})
	}
	if !cfg.Renderer.IntroMessage {
		return
	}
	if err := d.Client(DefaultOwner).SendMessage(introMessage); err != nil {
		d.logger.Warn("intro message rejected", logging.Error(err))
	}
}

// Client returns the overlay client for owner, creating it on first use.
func (d *Daemon) Client(owner string) *overlay.Client {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		owner = DefaultOwner
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if client, ok := d.clients[owner]; ok {
		return client
	}
	client := d.runtime.NewClient(owner)
	d.clients[owner] = client
	return client
}

// resetClients closes every client. Queued frames are flushed first.
func (d *Daemon) resetClients() {
	d.mu.Lock()
	clients := d.clients
	d.clients = make(map[string]*overlay.Client)
	d.mu.Unlock()
	for _, client := range clients {
		client.Close()
	}
}

func (d *Daemon) client(owner string) (*overlay.Client, error) {
	if !d.running.Load() {
		return nil, ErrNotRunning
	}
	return d.Client(owner), nil
}

// SendText draws or erases a text message for owner.
func (d *Daemon) SendText(owner string, msg protocol.Text) error {
	client, err := d.client(owner)
	if err != nil {
		return err
	}
	return client.SendMessage(msg)
}

// SendShape draws or erases a shape for owner.
func (d *Daemon) SendShape(owner string, msg protocol.Shape) error {
	client, err := d.client(owner)
	if err != nil {
		return err
	}
	return client.SendShape(msg)
}

// SendVector draws a polyline for owner.
func (d *Daemon) SendVector(owner, id, color string, points []protocol.VectorPoint, ttl int) error {
	client, err := d.client(owner)
	if err != nil {
		return err
	}
	return client.SendVector(id, color, points, ttl)
}

// SendSvg draws an SVG document for owner.
func (d *Daemon) SendSvg(owner string, msg protocol.Svg) error {
	client, err := d.client(owner)
	if err != nil {
		return err
	}
	return client.SendSvg(msg)
}

// SendCommand forwards a renderer command.
func (d *Daemon) SendCommand(owner, command string) error {
	client, err := d.client(owner)
	if err != nil {
		return err
	}
	return client.SendCommand(command)
}

// SendRaw forwards a caller-built message.
func (d *Daemon) SendRaw(owner string, msg protocol.Raw) error {
	client, err := d.client(owner)
	if err != nil {
		return err
	}
	return client.SendRaw(msg)
}

// applyConfig runs on every successful reload.
func (d *Daemon) applyConfig(prev, next *config.Config) {
	d.reloads.Add(1)
	if d.levelVar != nil {
		d.levelVar.Set(logging.ParseLevel(next.LogLevel()))
	}
	d.supervisor.Configure(next.LaunchSpec(), d.supervisorOptions(next))
	if !d.fixedNotifier && prev.Notifications != next.Notifications {
		d.mu.Lock()
		d.notifier = notifications.NewService(next)
		d.mu.Unlock()
	}

	if prev.TransportOptions() != next.TransportOptions() {
		d.mu.Lock()
		d.runtime = d.newRuntime(next)
		d.mu.Unlock()
		d.resetClients()
		d.logger.Info("transport settings changed; clients recreated",
			logging.String(logging.FieldAddress, next.TransportOptions().Address()))
	}

	restart := prev.RendererChanged(next) && d.supervisor.IsAlive() && d.running.Load()
	d.logger.Info("configuration reloaded",
		logging.String("path", d.holder.Path()),
		logging.Bool("debug", next.Logging.Debug),
		logging.Bool("renderer_restart", restart),
	)
	if !restart {
		return
	}
	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()
	if ctx == nil {
		return
	}
	go func() {
		if err := d.RestartRenderer(ctx); err != nil && ctx.Err() == nil {
			logging.WarnWithContext(d.logger, "renderer restart after reload failed", "renderer_restart",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run `hudoverlay renderer start` once the configuration is fixed"),
			)
			d.notify(func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyRendererFailed(ctx, err, "restart after reload")
			})
		}
	}()
}

// TestNotification sends a test alert synchronously. It reports false
// without error when no ntfy topic is configured.
func (d *Daemon) TestNotification(ctx context.Context) (bool, error) {
	if !d.fixedNotifier && d.holder.Current().Notifications.NtfyTopic == "" {
		return false, nil
	}
	d.mu.Lock()
	svc := d.notifier
	d.mu.Unlock()
	if err := svc.TestNotification(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// notify delivers an alert in the background so a slow ntfy server never
// holds up the renderer callbacks.
func (d *Daemon) notify(fn func(context.Context, notifications.Service) error) {
	d.mu.Lock()
	svc := d.notifier
	d.mu.Unlock()
	if svc == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := fn(ctx, svc); err != nil {
			d.logger.Warn("notification failed",
				logging.String(logging.FieldEventType, "notification_failed"),
				logging.Error(err),
			)
		}
	}()
}

// Status returns a snapshot of the daemon, renderer and clients.
func (d *Daemon) Status() Status {
	cfg := d.holder.Current()
	fontCfg := cfg.FontConfig()
	resolver := d.currentRuntime().Resolver()
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		ConfigPath:   d.holder.Path(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		Debug:        cfg.Logging.Debug,
		Reloads:      d.reloads.Load(),
		Renderer: RendererStatus{
			State:    d.supervisor.State().String(),
			Alive:    d.supervisor.IsAlive(),
			PID:      d.supervisor.PID(),
			Launches: d.supervisor.Launches(),
			Address:  cfg.TransportOptions().Address(),
		},
		Fonts: FontStatus{
			Normal:    resolver.Resolve("", fonts.Normal),
			Large:     resolver.Resolve("", fonts.Large),
			Overrides: len(fontCfg.Overrides),
		},
	}
	if status.Running {
		status.StartedAt = d.startedAt
	}

	d.mu.Lock()
	for owner, client := range d.clients {
		stats := client.Stats()
		status.Clients = append(status.Clients, ClientStatus{
			Owner:   owner,
			Token:   client.Token(),
			Sent:    stats.Sent,
			Failed:  stats.Failed,
			Dropped: stats.Dropped,
			Pending: stats.Pending,
		})
	}
	d.mu.Unlock()
	sortClients(status.Clients)
	return status
}

func (d *Daemon) currentRuntime() *overlay.Runtime {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runtime
}
