package yamux

import (
	"io"
	"os"
	"time"

	"github.com/benbjohnson/clock"
)

// Config holds session-wide tunables. The zero value is not valid;
// construct one with DefaultConfig and override individual fields.
type Config struct {
	// AcceptBacklog is the maximum number of streams allowed to sit in
	// the accept queue. A SYN arriving while the queue is already full
	// is answered with RST rather than admitted.
	AcceptBacklog int

	// EnableKeepalive controls whether the session auto-emits PINGs.
	EnableKeepalive bool

	// KeepAliveInterval is the spacing between automatic keepalive
	// PINGs when EnableKeepalive is set.
	KeepAliveInterval time.Duration

	// ConnectionWriteTimeout is advisory to the embedder; the engine
	// itself never times out a write.
	ConnectionWriteTimeout time.Duration

	// MaxStreamWindowSize is the receive window advertised for new
	// streams, enforced against the peer, and the ceiling for our own
	// replenishment.
	MaxStreamWindowSize uint32

	// LogOutput is where the session's structured logger writes.
	// Defaults to os.Stderr.
	LogOutput io.Writer

	// Clock is the monotonic clock used for keepalive scheduling and RTT
	// measurement. Defaults to the real wall clock; tests may substitute
	// clock.NewMock().
	Clock clock.Clock
}

// DefaultConfig returns the engine's default configuration. It is an
// immutable value, not a mutable package-level singleton: every call
// returns a fresh struct.
func DefaultConfig() *Config {
	return &Config{
		AcceptBacklog:          defaultAcceptBacklog,
		EnableKeepalive:        defaultEnableKeepalive,
		KeepAliveInterval:      defaultKeepAliveInterval,
		ConnectionWriteTimeout: defaultConnectionWriteTimeout,
		MaxStreamWindowSize:    defaultMaxStreamWindowSize,
		LogOutput:              os.Stderr,
		Clock:                  clock.New(),
	}
}

// Verify validates a Config, filling in defaults for unset fields that
// have a sensible zero-value replacement.
func (c *Config) Verify() error {
	if c.AcceptBacklog <= 0 {
		return ErrInvalid
	}
	if c.MaxStreamWindowSize < initialStreamWindow {
		return ErrInvalid
	}
	if c.LogOutput == nil {
		c.LogOutput = os.Stderr
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return nil
}
