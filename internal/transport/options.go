package transport

import (
	"math/rand/v2"
	"net"
	"strconv"
	"time"
)

const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 5010
	DefaultDialTimeout     = 5 * time.Second
	DefaultConnectAttempts = 3
	DefaultConnectPause    = 200 * time.Millisecond
	DefaultSendAttempts    = 4
	DefaultBackoffMin      = 200 * time.Millisecond
	DefaultBackoffMax      = 450 * time.Millisecond
)

// Backoff is a uniformly jittered pause between send attempts.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// Next returns a pause in [Min, Max].
func (b Backoff) Next() time.Duration {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + rand.N(b.Max-b.Min+1)
}

// Options configures a Conn. Zero fields take the package defaults.
type Options struct {
	Host            string
	Port            int
	DialTimeout     time.Duration
	WriteTimeout    time.Duration
	ConnectAttempts int
	ConnectPause    time.Duration
	SendAttempts    int
	Backoff         Backoff
}

// DefaultOptions returns the renderer's stock endpoint and retry budget.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

// Address returns host:port.
func (o Options) Address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = o.DialTimeout
	}
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = DefaultConnectAttempts
	}
	if o.ConnectPause < 0 {
		o.ConnectPause = 0
	} else if o.ConnectPause == 0 {
		o.ConnectPause = DefaultConnectPause
	}
	if o.SendAttempts <= 0 {
		o.SendAttempts = DefaultSendAttempts
	}
	if o.Backoff.Min <= 0 && o.Backoff.Max <= 0 {
		o.Backoff = Backoff{Min: DefaultBackoffMin, Max: DefaultBackoffMax}
	}
	if o.Backoff.Min < 0 {
		o.Backoff.Min = 0
	}
	if o.Backoff.Max < o.Backoff.Min {
		o.Backoff.Max = o.Backoff.Min
	}
	return o
}
