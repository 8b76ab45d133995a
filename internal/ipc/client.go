package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"hudoverlay/internal/protocol"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Req, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start asks an idle daemon to start.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartRequest, StartResponse](c, "Start", StartRequest{})
}

// Stop requests the daemon to stop without exiting.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopRequest, StopResponse](c, "Stop", StopRequest{})
}

// Shutdown stops the daemon and ends its process.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	return call[ShutdownRequest, ShutdownResponse](c, "Shutdown", ShutdownRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// TestNotification asks the daemon to send a test alert.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationRequest, TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}

// StartRenderer launches the renderer unless it is already running.
func (c *Client) StartRenderer() (*RendererResponse, error) {
	return call[RendererRequest, RendererResponse](c, "StartRenderer", RendererRequest{})
}

// StopRenderer asks the renderer to exit and stops its process.
func (c *Client) StopRenderer() (*RendererResponse, error) {
	return call[RendererRequest, RendererResponse](c, "StopRenderer", RendererRequest{})
}

// RestartRenderer stops and relaunches the renderer.
func (c *Client) RestartRenderer() (*RendererResponse, error) {
	return call[RendererRequest, RendererResponse](c, "RestartRenderer", RendererRequest{})
}

// SendText queues a text message for owner.
func (c *Client) SendText(owner string, msg protocol.Text) (*SendResponse, error) {
	return call[TextRequest, SendResponse](c, "SendText", TextRequest{Owner: owner, Message: msg})
}

// SendShape queues a shape for owner.
func (c *Client) SendShape(owner string, shape protocol.Shape) (*SendResponse, error) {
	return call[ShapeRequest, SendResponse](c, "SendShape", ShapeRequest{Owner: owner, Shape: shape})
}

// SendVector queues a polyline for owner.
func (c *Client) SendVector(req VectorRequest) (*SendResponse, error) {
	return call[VectorRequest, SendResponse](c, "SendVector", req)
}

// SendSvg queues an SVG document for owner.
func (c *Client) SendSvg(owner string, svg protocol.Svg) (*SendResponse, error) {
	return call[SvgRequest, SendResponse](c, "SendSvg", SvgRequest{Owner: owner, Svg: svg})
}

// SendCommand queues a renderer command.
func (c *Client) SendCommand(owner, command string) (*SendResponse, error) {
	return call[CommandRequest, SendResponse](c, "SendCommand", CommandRequest{Owner: owner, Command: command})
}

// SendRaw queues a caller-built message.
func (c *Client) SendRaw(owner string, msg protocol.Raw) (*SendResponse, error) {
	return call[RawRequest, SendResponse](c, "SendRaw", RawRequest{Owner: owner, Message: msg})
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailRequest, LogTailResponse](c, "LogTail", req)
}
