package daemonctl

import (
	"context"
	"errors"
	"net"
	"time"

	"hudoverlay/internal/config"
	"hudoverlay/internal/fonts"
	"hudoverlay/internal/ipc"
)

// StatusSnapshot combines daemon status with checks that work offline.
type StatusSnapshot struct {
	Daemon            ipc.StatusResponse
	DaemonReachable   bool
	RendererAddress   string
	RendererReachable bool
	RendererCommand   []string
	RendererError     string
	Fonts             ipc.FontStatus
}

// BuildStatusSnapshot collects daemon status and fills in what configuration
// alone can tell when the daemon is down.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &StatusSnapshot{RendererAddress: cfg.TransportOptions().Address()}

	if client, err := ipc.Dial(socketPath); err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snapshot.Daemon = *resp
			snapshot.DaemonReachable = true
			if resp.Renderer.Address != "" {
				snapshot.RendererAddress = resp.Renderer.Address
			}
		}
	}
	snapshot.RendererReachable = probe(ctx, snapshot.RendererAddress, time.Second)

	if argv, err := cfg.LaunchSpec().Command(); err != nil {
		snapshot.RendererError = err.Error()
	} else {
		snapshot.RendererCommand = argv
	}

	if snapshot.DaemonReachable {
		snapshot.Fonts = snapshot.Daemon.Fonts
		return snapshot, nil
	}
	resolver := fonts.NewResolver(cfg)
	snapshot.Fonts = ipc.FontStatus{
		Normal:    resolver.Resolve("", fonts.Normal),
		Large:     resolver.Resolve("", fonts.Large),
		Overrides: len(cfg.Fonts.Overrides),
	}
	return snapshot, nil
}

// probe reports whether something accepts TCP connections at address.
func probe(ctx context.Context, address string, timeout time.Duration) bool {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
