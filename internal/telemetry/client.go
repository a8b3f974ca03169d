// Package telemetry owns the per-session event pipeline: an ordered queue of
// pending events drained by a single delivery loop into the event store,
// plus idle-gap detection derived from activity timing.
//
// Delivery is strictly FIFO and at-least-once: a failed attempt keeps the
// head in place and retries after a backoff; a success removes exactly that
// head. The client never assigns sequence numbers, only capture timestamps.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/pkg/logger"
	"github.com/okian/proctor/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultIdleThreshold = 5 * time.Second
	defaultRetryBackoff  = 500 * time.Millisecond
)

// Store is the narrow slice of the event store the client delivers into.
// Append must be durable before it acknowledges; it assigns and returns the
// per-session sequence number.
type Store interface {
	Append(ctx context.Context, sessionID string, t event.Type, md event.Metadata, ts time.Time) (int64, error)
}

// Client is the per-session telemetry pipeline. A Client is bound to one
// session at a time via Initialize; re-initializing fully resets state so no
// queued events leak across sessions.
type Client struct {
	store         Store
	idleThreshold time.Duration
	retryBackoff  time.Duration
	clock         func() time.Time
	log           logger.Logger

	mu           sync.Mutex
	sessionID    string
	pending      []event.Event
	draining     bool
	lastActivity time.Time
	idleTimer    *time.Timer
	// gen invalidates drain loops and idle timers from earlier bindings.
	gen    int
	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates an unbound client. Call Initialize before Track.
func NewClient(store Store, opts ...Option) *Client {
	c := &Client{
		store:         store,
		idleThreshold: defaultIdleThreshold,
		retryBackoff:  defaultRetryBackoff,
		clock:         time.Now,
		log:           logger.Get().Named("telemetry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize binds the client to a session, resetting the queue, the
// activity clock, and the idle timer. Any prior binding is torn down first.
func (c *Client) Initialize(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.sessionID = sessionID
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.lastActivity = c.clock()
	c.armIdleTimerLocked()
	metrics.UpdateTelemetryPending(0)
}

// Track appends a pending event stamped with the capture time, refreshes the
// activity clock, re-arms the idle timer, and kicks the delivery loop.
func (c *Client) Track(t event.Type, md event.Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID == "" {
		return ErrNotInitialized
	}
	now := c.clock()
	c.pending = append(c.pending, event.New(c.sessionID, t, md, now))
	c.lastActivity = now
	c.armIdleTimerLocked()
	metrics.RecordEventTracked()
	metrics.UpdateTelemetryPending(len(c.pending))
	c.startDrainLocked()
	return nil
}

// Cleanup cancels the idle timer and in-flight delivery and discards any
// still-queued events. This is the accepted loss boundary at teardown; no
// partially-delivered event is delivered afterwards.
func (c *Client) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	metrics.UpdateTelemetryPending(0)
}

// Pending returns the number of not-yet-acknowledged events.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// resetLocked tears down the current binding. Callers hold c.mu.
func (c *Client) resetLocked() {
	c.gen++
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sessionID = ""
	c.pending = nil
	c.draining = false
}

// armIdleTimerLocked (re)arms the quiescence timer. Callers hold c.mu.
func (c *Client) armIdleTimerLocked() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	gen := c.gen
	c.idleTimer = time.AfterFunc(c.idleThreshold, func() {
		c.fireIdle(gen)
	})
}

// fireIdle enqueues a synthetic IDLE_GAP event carrying the elapsed gap. The
// synthetic event is metadata about the gap, not new activity: it does not
// touch the activity clock, and the timer is only re-armed by the next Track,
// so one quiet interval can never fire twice.
func (c *Client) fireIdle(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.sessionID == "" {
		return
	}
	now := c.clock()
	gap := now.Sub(c.lastActivity)
	c.pending = append(c.pending, event.New(c.sessionID, event.IdleGap, event.Metadata{
		"gap_ms": gap.Milliseconds(),
	}, now))
	metrics.RecordIdleGap(gap)
	metrics.UpdateTelemetryPending(len(c.pending))
	c.startDrainLocked()
}

// startDrainLocked launches the delivery loop unless one is already active.
// The draining flag enforces the single-loop-per-session invariant. Callers
// hold c.mu.
func (c *Client) startDrainLocked() {
	if c.draining {
		return
	}
	c.draining = true
	go c.drain(c.ctx, c.gen)
}

// drain delivers pending events head-first until the queue empties or the
// binding changes. On transport failure the head stays put and the loop
// pauses before retrying; events are never reordered or removed unacked.
func (c *Client) drain(ctx context.Context, gen int) {
	for {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		if len(c.pending) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		head := c.pending[0]
		c.mu.Unlock()

		_, err := c.store.Append(ctx, head.SessionID, head.Type, head.Metadata, head.Timestamp)
		if err != nil {
			metrics.RecordDeliveryRetry()
			c.log.Warn(ctx, "event delivery failed, backing off",
				logger.String("session_id", head.SessionID),
				logger.String("type", string(head.Type)),
				logger.Error(err))
			select {
			case <-ctx.Done():
				c.mu.Lock()
				if gen == c.gen {
					c.draining = false
				}
				c.mu.Unlock()
				return
			case <-time.After(c.retryBackoff):
			}
			continue
		}

		metrics.RecordEventDelivered()
		c.mu.Lock()
		if gen == c.gen && len(c.pending) > 0 {
			c.pending = c.pending[1:]
			metrics.UpdateTelemetryPending(len(c.pending))
		}
		c.mu.Unlock()
	}
}
