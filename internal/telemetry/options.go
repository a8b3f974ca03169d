package telemetry

import (
	"time"

	"github.com/okian/proctor/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithIdleThreshold sets the quiescence period after which an IDLE_GAP
// event fires.
func WithIdleThreshold(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.idleThreshold = d
		}
	}
}

// WithRetryBackoff sets the pause between failed delivery attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}

// WithClock overrides the capture-time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}
