package testsupport

import (
	"bufio"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"hudoverlay/internal/protocol"
)

// FakeRenderer is a TCP listener that decodes overlay frames the way the real
// renderer does and hands their payloads to the test.
type FakeRenderer struct {
	t        testing.TB
	listener net.Listener
	frames   chan []byte
	accepted atomic.Int32
}

// NewFakeRenderer listens on a free loopback port until the test ends.
func NewFakeRenderer(t testing.TB) *FakeRenderer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen fake renderer: %v", err)
	}
	r := &FakeRenderer{t: t, listener: listener, frames: make(chan []byte, 1024)}
	go r.acceptLoop()
	t.Cleanup(r.Close)
	return r
}

func (r *FakeRenderer) acceptLoop() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}
		r.accepted.Add(1)
		go func() {
			defer conn.Close()
			reader := bufio.NewReader(conn)
			for {
				payload, err := protocol.ReadFrame(reader)
				if err != nil {
					return
				}
				r.frames <- payload
			}
		}()
	}
}

// Host returns the listen host.
func (r *FakeRenderer) Host() string {
	return r.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listen port.
func (r *FakeRenderer) Port() int {
	return r.listener.Addr().(*net.TCPAddr).Port
}

// Connections returns how many connections were accepted.
func (r *FakeRenderer) Connections() int {
	return int(r.accepted.Load())
}

// Next returns the next payload or fails the test after timeout.
func (r *FakeRenderer) Next(timeout time.Duration) []byte {
	r.t.Helper()
	select {
	case payload := <-r.frames:
		return payload
	case <-time.After(timeout):
		r.t.Fatalf("fake renderer: no frame within %s", timeout)
		return nil
	}
}

// NextJSON decodes the next payload into a map.
func (r *FakeRenderer) NextJSON(timeout time.Duration) map[string]any {
	r.t.Helper()
	payload := r.Next(timeout)
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		r.t.Fatalf("fake renderer: decode %s: %v", payload, err)
	}
	return out
}

// Close stops listening. Established connections end when their clients
// close them.
func (r *FakeRenderer) Close() {
	_ = r.listener.Close()
}
