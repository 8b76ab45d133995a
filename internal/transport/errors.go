package transport

import (
	"errors"
	"io"
	"net"
	"syscall"
)

type failureKind string

const (
	failureRefused failureKind = "refused"
	failureBroken  failureKind = "broken"
	failureTimeout failureKind = "timeout"
	failureOther   failureKind = "other"
)

func classify(err error) failureKind {
	switch {
	case err == nil:
		return failureOther
	case errors.Is(err, syscall.ECONNREFUSED):
		return failureRefused
	case errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, io.EOF):
		return failureBroken
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTimeout
	}
	return failureOther
}

func (k failureKind) hint() string {
	switch k {
	case failureRefused:
		return "renderer is not accepting connections; check that it started and listens on the configured port"
	case failureBroken:
		return "renderer closed the connection; it will be redialed"
	case failureTimeout:
		return "renderer did not respond in time; check system load"
	default:
		return "check renderer logs"
	}
}
