package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"hudoverlay/internal/logging"
)

const (
	DefaultProbeInterval = 500 * time.Millisecond
	DefaultProbeAttempts = 20
	DefaultProbeTimeout  = 500 * time.Millisecond
	DefaultStopTimeout   = 5 * time.Second
	killGrace            = 2 * time.Second
)

// CommandFactory produces the renderer argv. It is called once per launch.
type CommandFactory interface {
	Command() ([]string, error)
}

// CommandFunc adapts a function to CommandFactory.
type CommandFunc func() ([]string, error)

func (f CommandFunc) Command() ([]string, error) { return f() }

// State is the lifecycle state of the renderer process.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "not_started"
	}
}

// Options configures readiness probing and shutdown.
type Options struct {
	Host          string
	Port          int
	ProbeInterval time.Duration
	ProbeAttempts int
	ProbeTimeout  time.Duration
	StopTimeout   time.Duration
	// LockPath, when set, is flocked while this process owns the renderer.
	LockPath string
	// Output receives the renderer's stdout and stderr. Nil discards them.
	Output io.Writer
	// OnReady runs after every successful launch, whichever caller caused
	// it, once the process lock is released.
	OnReady func(ReadyEvent)
}

// ReadyEvent describes a renderer launch that passed the readiness check.
type ReadyEvent struct {
	PID      int
	Launches int64
	// Recovered is set when the previous renderer exited without being
	// stopped and this launch replaced it.
	Recovered bool
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Host) == "" {
		o.Host = "127.0.0.1"
	}
	if o.Port <= 0 {
		o.Port = 5010
	}
	if o.ProbeInterval <= 0 {
		o.ProbeInterval = DefaultProbeInterval
	}
	if o.ProbeAttempts <= 0 {
		o.ProbeAttempts = DefaultProbeAttempts
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = DefaultStopTimeout
	}
	return o
}

func (o Options) address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

type process struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	started time.Time
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Supervisor starts, probes and stops the renderer process.
type Supervisor struct {
	logger *slog.Logger

	mu      sync.Mutex
	factory CommandFactory
	opts    Options

	procMu   sync.Mutex
	proc     *process
	state    State
	launches int64
	lock     *flock.Flock
}

// New returns a supervisor that launches argv from factory.
func New(factory CommandFactory, opts Options, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		logger:  logging.NewComponentLogger(logger, "supervisor"),
		factory: factory,
		opts:    opts.withDefaults(),
	}
}

// Configure swaps the launch configuration. A running renderer keeps running
// until it is stopped; the next launch uses the new settings.
func (s *Supervisor) Configure(factory CommandFactory, opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if factory != nil {
		s.factory = factory
	}
	s.opts = opts.withDefaults()
}

func (s *Supervisor) config() (CommandFactory, Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.factory, s.opts
}

// EnsureStarted launches the renderer unless it is already running. onReady
// runs once, after the lock is released, only when this call launched the
// renderer and it accepted a connection. Options.OnReady runs before it.
func (s *Supervisor) EnsureStarted(ctx context.Context, onReady func()) error {
	event, launched, err := s.ensureStarted(ctx)
	if !launched {
		return err
	}
	if _, opts := s.config(); opts.OnReady != nil {
		opts.OnReady(event)
	}
	if onReady != nil {
		onReady()
	}
	return err
}

func (s *Supervisor) ensureStarted(ctx context.Context) (ReadyEvent, bool, error) {
	factory, opts := s.config()

	s.procMu.Lock()
	defer s.procMu.Unlock()

	var event ReadyEvent
	if s.proc != nil {
		if !s.proc.exited() {
			return event, false, nil
		}
		s.reapLocked("renderer process exited; cleaning up")
		event.Recovered = true
	}

	if factory == nil {
		err := fmt.Errorf("%w: no command configured", ErrLaunch)
		logging.ErrorWithContext(s.logger, "renderer launch failed", "renderer_launch_failed",
			logging.String(logging.FieldErrorHint, "configure renderer.command or renderer.candidates"),
			logging.Error(err),
		)
		return event, false, err
	}

	if err := s.acquireLockLocked(opts.LockPath); err != nil {
		return event, false, err
	}

	argv, err := factory.Command()
	if err == nil && len(argv) == 0 {
		err = errors.New("empty command")
	}
	if err != nil {
		s.releaseLockLocked()
		err = fmt.Errorf("%w: %w", ErrLaunch, err)
		logging.ErrorWithContext(s.logger, "renderer launch failed", "renderer_launch_failed",
			logging.String(logging.FieldErrorHint, "check renderer.candidates and renderer.command"),
			logging.Error(err),
		)
		return event, false, err
	}

	s.logger.Info("starting renderer",
		logging.String(logging.FieldEventType, "renderer_starting"),
		logging.String("command", strings.Join(argv, " ")),
	)
	proc, err := s.launch(argv, opts)
	if err != nil {
		s.releaseLockLocked()
		err = fmt.Errorf("%w: %w", ErrLaunch, err)
		logging.ErrorWithContext(s.logger, "renderer launch failed", "renderer_launch_failed",
			logging.String(logging.FieldErrorHint, "verify the renderer binary exists and is executable"),
			logging.Error(err),
		)
		return event, false, err
	}
	s.proc = proc
	s.state = StateRunning
	s.launches++

	if err := s.waitForPortLocked(ctx, opts); err != nil {
		if errors.Is(err, ErrLaunch) {
			s.reapLocked("renderer exited before accepting connections")
			logging.ErrorWithContext(s.logger, "renderer exited during startup", "renderer_launch_failed",
				logging.String(logging.FieldErrorHint, "run the renderer command manually to see its output"),
				logging.Error(err),
			)
			return event, false, err
		}
		logging.ErrorWithContext(s.logger, "renderer started but port is closed", "renderer_readiness_timeout",
			logging.String(logging.FieldAddress, opts.address()),
			logging.Int(logging.FieldPID, proc.cmd.Process.Pid),
			logging.String(logging.FieldErrorHint, "check renderer.port matches the renderer's listen port"),
			logging.Error(err),
		)
		return event, false, err
	}

	s.logger.Info("renderer ready",
		logging.String(logging.FieldEventType, "renderer_ready"),
		logging.Int(logging.FieldPID, proc.cmd.Process.Pid),
		logging.Duration("startup", time.Since(proc.started)),
		logging.Bool("recovered", event.Recovered),
	)
	event.PID = proc.cmd.Process.Pid
	event.Launches = s.launches
	return event, true, nil
}

func (s *Supervisor) launch(argv []string, opts Options) (*process, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if opts.Output != nil {
		cmd.Stdout = opts.Output
		cmd.Stderr = opts.Output
	}
	setProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	proc := &process{cmd: cmd, done: make(chan struct{}), started: time.Now()}
	go func() {
		proc.waitErr = cmd.Wait()
		close(proc.done)
	}()
	return proc, nil
}

func (s *Supervisor) waitForPortLocked(ctx context.Context, opts Options) error {
	address := opts.address()
	dialer := net.Dialer{Timeout: opts.ProbeTimeout}
	for attempt := 1; attempt <= opts.ProbeAttempts; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if s.proc.exited() {
			return fmt.Errorf("%w: renderer exited: %v", ErrLaunch, s.proc.waitErr)
		}
		timer := time.NewTimer(opts.ProbeInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrReadinessTimeout, ctx.Err())
		case <-s.proc.done:
			timer.Stop()
			return fmt.Errorf("%w: renderer exited: %v", ErrLaunch, s.proc.waitErr)
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d probes of %s", ErrReadinessTimeout, opts.ProbeAttempts, address)
}

// Stop terminates the renderer, waits up to StopTimeout, kills it if it is
// still running, and clears the handle either way. It is a no-op when no
// renderer was started.
func (s *Supervisor) Stop(ctx context.Context) error {
	_, opts := s.config()

	s.procMu.Lock()
	defer s.procMu.Unlock()

	if s.proc == nil {
		s.logger.Debug("renderer was not started")
		return nil
	}
	proc := s.proc
	pid := proc.cmd.Process.Pid
	s.logger.Info("stopping renderer", logging.Int(logging.FieldPID, pid))

	var stopErr error
	if !proc.exited() {
		if err := terminate(proc.cmd.Process); err != nil && !proc.exited() {
			s.logger.Debug("renderer terminate signal failed", logging.Error(err))
		}
		timer := time.NewTimer(opts.StopTimeout)
		select {
		case <-proc.done:
		case <-timer.C:
			stopErr = s.killLocked(proc, "stop timeout elapsed")
		case <-ctx.Done():
			stopErr = s.killLocked(proc, "stop cancelled")
		}
		timer.Stop()
	}

	s.proc = nil
	s.state = StateStopped
	s.releaseLockLocked()
	s.logger.Info("renderer stopped",
		logging.String(logging.FieldEventType, "renderer_stopped"),
		logging.Int(logging.FieldPID, pid),
	)
	return stopErr
}

func (s *Supervisor) killLocked(proc *process, reason string) error {
	logging.WarnWithContext(s.logger, "killing renderer", "renderer_kill",
		logging.String("reason", reason),
		logging.Int(logging.FieldPID, proc.cmd.Process.Pid),
		logging.String(logging.FieldErrorHint, "renderer ignored the terminate signal"),
	)
	if err := proc.cmd.Process.Kill(); err != nil && !proc.exited() {
		return fmt.Errorf("kill renderer: %w", err)
	}
	select {
	case <-proc.done:
		return nil
	case <-time.After(killGrace):
		return fmt.Errorf("renderer %d did not exit after kill", proc.cmd.Process.Pid)
	}
}

func (s *Supervisor) reapLocked(msg string) {
	if s.proc == nil {
		return
	}
	attrs := []logging.Attr{logging.Int(logging.FieldPID, s.proc.cmd.Process.Pid)}
	if s.proc.waitErr != nil {
		attrs = append(attrs, logging.Error(s.proc.waitErr))
	}
	s.logger.Debug(msg, logging.Args(attrs...)...)
	s.proc = nil
	s.state = StateStopped
	s.releaseLockLocked()
}

func (s *Supervisor) acquireLockLocked(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if s.lock == nil || s.lock.Path() != path {
		s.releaseLockLocked()
		s.lock = flock.New(path)
	}
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: acquire renderer lock: %w", ErrLaunch, err)
	}
	if !locked {
		s.logger.Debug("renderer lock held by another process", logging.String("lock_path", path))
		return ErrLockedElsewhere
	}
	return nil
}

func (s *Supervisor) releaseLockLocked() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Debug("renderer lock release failed", logging.Error(err))
	}
}

// IsAlive reports whether a renderer handle exists and the process has not
// exited.
func (s *Supervisor) IsAlive() bool {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	return s.proc != nil && !s.proc.exited()
}

// PID returns the renderer pid, or 0 when none is installed.
func (s *Supervisor) PID() int {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	if s.proc == nil || s.proc.cmd.Process == nil {
		return 0
	}
	return s.proc.cmd.Process.Pid
}

// State returns the lifecycle state. A renderer that died on its own is
// reported as stopped.
func (s *Supervisor) State() State {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	if s.proc != nil && s.proc.exited() {
		return StateStopped
	}
	return s.state
}

// Launches returns how many times a renderer process was started.
func (s *Supervisor) Launches() int64 {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	return s.launches
}

// Reset stops the renderer and returns the supervisor to its initial state.
func (s *Supervisor) Reset(ctx context.Context) error {
	err := s.Stop(ctx)
	s.procMu.Lock()
	s.state = StateNotStarted
	s.launches = 0
	if s.lock != nil {
		s.releaseLockLocked()
		s.lock = nil
	}
	s.procMu.Unlock()
	return err
}
