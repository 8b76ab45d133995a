package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"hudoverlay/internal/daemon"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/logs"
)

// ServiceName prefixes every RPC method.
const ServiceName = "Overlay"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ServerOption customizes a Server.
type ServerOption func(*service)

// WithShutdown registers the function the Shutdown RPC calls after stopping
// the daemon. Without it Shutdown only stops the daemon.
func WithShutdown(fn func()) ServerOption {
	return func(s *service) { s.shutdown = fn }
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	for _, opt := range opts {
		if opt != nil {
			opt(srv)
		}
	}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file. Connected clients are
// served until they hang up.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun hudoverlay stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
	once     sync.Once
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

// Shutdown replies first and tears down afterwards so the caller is not
// left waiting on a closing socket.
func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	resp.Accepted = true
	s.once.Do(func() {
		s.log().Info("shutdown requested via IPC",
			logging.String(logging.FieldEventType, "daemon_shutdown"))
		go func() {
			time.Sleep(50 * time.Millisecond)
			s.daemon.Stop()
			if s.shutdown != nil {
				s.shutdown()
			}
		}()
	})
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Second)
	defer cancel()
	sent, err := s.daemon.TestNotification(ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	if !sent {
		resp.Message = "Notifications are disabled; set notifications.ntfy_topic"
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	*resp = StatusResponse{
		Running:    status.Running,
		PID:        status.PID,
		StartedAt:  status.StartedAt,
		ConfigPath: status.ConfigPath,
		LockPath:   status.LockFilePath,
		LogPath:    status.LogPath,
		Debug:      status.Debug,
		Reloads:    status.Reloads,
		Renderer:   status.Renderer,
		Fonts:      status.Fonts,
		Clients:    status.Clients,
	}
	return nil
}

func (s *service) rendererState(resp *RendererResponse) {
	status := s.daemon.Status().Renderer
	resp.State = status.State
	resp.PID = status.PID
	resp.Launches = status.Launches
}

func (s *service) StartRenderer(_ RendererRequest, resp *RendererResponse) error {
	s.log().Debug("renderer start requested")
	err := s.daemon.StartRenderer(s.ctx)
	s.rendererState(resp)
	return err
}

func (s *service) StopRenderer(_ RendererRequest, resp *RendererResponse) error {
	s.log().Debug("renderer stop requested")
	err := s.daemon.StopRenderer(s.ctx)
	s.rendererState(resp)
	return err
}

func (s *service) RestartRenderer(_ RendererRequest, resp *RendererResponse) error {
	s.log().Debug("renderer restart requested")
	err := s.daemon.RestartRenderer(s.ctx)
	s.rendererState(resp)
	return err
}

func (s *service) queued(owner string, resp *SendResponse, err error) error {
	if err != nil {
		return err
	}
	client := s.daemon.Client(owner)
	*resp = SendResponse{Queued: true, Owner: client.Owner(), Token: client.Token()}
	return nil
}

func (s *service) SendText(req TextRequest, resp *SendResponse) error {
	return s.queued(req.Owner, resp, s.daemon.SendText(req.Owner, req.Message))
}

func (s *service) SendShape(req ShapeRequest, resp *SendResponse) error {
	return s.queued(req.Owner, resp, s.daemon.SendShape(req.Owner, req.Shape))
}

func (s *service) SendVector(req VectorRequest, resp *SendResponse) error {
	return s.queued(req.Owner, resp, s.daemon.SendVector(req.Owner, req.ID, req.Color, req.Points, req.TTL))
}

func (s *service) SendSvg(req SvgRequest, resp *SendResponse) error {
	return s.queued(req.Owner, resp, s.daemon.SendSvg(req.Owner, req.Svg))
}

func (s *service) SendCommand(req CommandRequest, resp *SendResponse) error {
	return s.queued(req.Owner, resp, s.daemon.SendCommand(req.Owner, req.Command))
}

func (s *service) SendRaw(req RawRequest, resp *SendResponse) error {
	return s.queued(req.Owner, resp, s.daemon.SendRaw(req.Owner, req.Message))
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

