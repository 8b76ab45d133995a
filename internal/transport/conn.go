package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"hudoverlay/internal/logging"
)

// Starter makes sure the renderer process is running. It is satisfied by
// *supervisor.Supervisor.
type Starter interface {
	EnsureStarted(ctx context.Context, onReady func()) error
}

// DialFunc opens a network connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option customizes a Conn.
type Option func(*Conn)

// WithDialer replaces the TCP dialer.
func WithDialer(dial DialFunc) Option {
	return func(c *Conn) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// WithSleep replaces the pause used between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Conn) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// Conn is a best-effort connection to the renderer. It is safe for
// concurrent use; writes are serialized.
type Conn struct {
	opts    Options
	starter Starter
	logger  *slog.Logger
	dial    DialFunc
	sleep   SleepFunc

	mu   sync.Mutex
	conn net.Conn
}

// New builds a Conn. The socket is not dialed until Connect or Send. A nil
// starter skips the renderer start check.
func New(opts Options, starter Starter, logger *slog.Logger, options ...Option) *Conn {
	opts = opts.withDefaults()
	c := &Conn{
		opts:    opts,
		starter: starter,
		logger:  logging.NewComponentLogger(logger, "transport").With(logging.String(logging.FieldAddress, opts.Address())),
		sleep:   sleepContext,
	}
	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	c.dial = dialer.DialContext
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Options returns the effective options.
func (c *Conn) Options() Options {
	return c.opts
}

// Connected reports whether a socket is cached.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Connect makes sure the renderer runs and dials it. It returns true when a
// socket is cached on return.
func (c *Conn) Connect(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Send writes data to the renderer, reconnecting and retrying within the
// configured budget. It returns false once the budget is exhausted or ctx is
// done; the frame is then dropped.
func (c *Conn) Send(ctx context.Context, data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("renderer send panicked",
				logging.String(logging.FieldEventType, "renderer_send_panic"),
				logging.Any("panic", r),
			)
			ok = false
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	attempts := c.opts.SendAttempts
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		if c.conn == nil && !c.connectLocked(ctx) {
			c.logger.Debug("renderer unreachable for send", logging.Int(logging.FieldAttempt, attempt))
		} else if err := c.writeLocked(data); err != nil {
			kind := classify(err)
			logging.WarnWithContext(c.logger, "renderer send failed", "renderer_send_failed",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("failure", string(kind)),
				logging.String(logging.FieldErrorHint, kind.hint()),
				logging.Error(err),
			)
			c.dropLocked()
		} else {
			if attempt > 1 {
				c.logger.Debug("renderer send recovered", logging.Int(logging.FieldAttempt, attempt))
			}
			return true
		}
		if attempt < attempts {
			if err := c.sleep(ctx, c.opts.Backoff.Next()); err != nil {
				return false
			}
		}
	}
	logging.WarnWithContext(c.logger, "dropping overlay frame after retries", "renderer_frame_dropped",
		logging.Int("attempts", attempts),
		logging.Int("bytes", len(data)),
		logging.String(logging.FieldImpact, "one overlay element was not drawn"),
	)
	return false
}

// Close releases the cached socket. It is idempotent and never fails; a
// later Send dials again.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

func (c *Conn) connectLocked(ctx context.Context) bool {
	if c.conn != nil {
		return true
	}
	if c.starter != nil {
		if err := c.starter.EnsureStarted(ctx, nil); err != nil {
			c.logger.Debug("renderer start check failed", logging.Error(err))
		}
	}

	address := c.opts.Address()
	for attempt := 1; attempt <= c.opts.ConnectAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		conn, err := c.dialOnce(ctx, address)
		if err == nil {
			c.conn = conn
			c.logger.Debug("connected to renderer", logging.Int(logging.FieldAttempt, attempt))
			return true
		}
		kind := classify(err)
		c.logger.Debug("renderer dial failed",
			logging.Int(logging.FieldAttempt, attempt),
			logging.String("failure", string(kind)),
			logging.Error(err),
		)
		if attempt == c.opts.ConnectAttempts {
			logging.WarnWithContext(c.logger, "could not connect to renderer", "renderer_connect_failed",
				logging.Int("attempts", c.opts.ConnectAttempts),
				logging.String("failure", string(kind)),
				logging.String(logging.FieldErrorHint, kind.hint()),
				logging.Error(err),
			)
			break
		}
		if err := c.sleep(ctx, c.opts.ConnectPause); err != nil {
			return false
		}
	}
	return false
}

func (c *Conn) dialOnce(ctx context.Context, address string) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()
	conn, err := c.dial(dialCtx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}

func (c *Conn) writeLocked(data []byte) error {
	if c.opts.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	for len(data) > 0 {
		n, err := c.conn.Write(data)
		if err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		data = data[n:]
	}
	return nil
}

func (c *Conn) dropLocked() {
	if c.conn == nil {
		return
	}
	if tcp, ok := c.conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	_ = c.conn.Close()
	c.conn = nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
