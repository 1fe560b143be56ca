package websocket

import (
	"context"
	"sync"
	"time"

	"live-voting/internal/domain"
	"live-voting/internal/metrics"
	"live-voting/pkg/logger"
)

// Channel owns the single physical push connection and its lifecycle:
// Idle -> Connecting -> Open -> Closed -> (retry) -> Connecting ...
//
// Every close, clean or not, schedules a retry through the ReconnectPolicy,
// except closes that follow an explicit Disconnect. Frames are decoded and
// dispatched inline by the read loop, so delivery order equals arrival order.
type Channel struct {
	endpoint   string
	dialer     domain.Dialer
	dispatcher *Dispatcher
	policy     *ReconnectPolicy
	log        logger.Logger
	metrics    *metrics.ChannelMetrics

	mu         sync.Mutex
	state      domain.ConnectionState
	conn       domain.Conn
	cancelDial context.CancelFunc
	generation uint64
	suppress   bool
	retryDelay time.Duration
	observers  []func(domain.ConnectionState)

	wg sync.WaitGroup
}

func NewChannel(endpoint string, dialer domain.Dialer, dispatcher *Dispatcher,
	policy *ReconnectPolicy, log logger.Logger, m *metrics.ChannelMetrics) *Channel {
	return &Channel{
		endpoint:   endpoint,
		dialer:     dialer,
		dispatcher: dispatcher,
		policy:     policy,
		log:        log,
		metrics:    m,
		state:      domain.StateIdle,
		retryDelay: policy.Delay(),
	}
}

func (c *Channel) Endpoint() string {
	return c.endpoint
}

func (c *Channel) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryDelay is the wait applied before the next reconnect attempt.
func (c *Channel) RetryDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryDelay
}

// OnStateChange registers fn to be called after every state transition.
// Observers run outside the channel lock, on the goroutine that caused the transition.
func (c *Channel) OnStateChange(fn func(domain.ConnectionState)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Connect opens the channel. It is a no-op while Connecting or Open, and it
// re-enables automatic reconnects after a Disconnect.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.state == domain.StateConnecting || c.state == domain.StateOpen {
		c.mu.Unlock()
		return
	}
	c.suppress = false
	c.policy.Cancel()
	c.startLocked()
}

// reconnect is fired by the ReconnectPolicy. A retry scheduled for an older
// generation, or one that lost a race with Disconnect, is discarded.
func (c *Channel) reconnect(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.suppress || c.state != domain.StateClosed {
		c.mu.Unlock()
		return
	}
	c.metrics.IncReconnects()
	c.log.Info("Reconnecting channel", "endpoint", c.endpoint)
	c.startLocked()
}

// startLocked must be called with c.mu held; it releases it.
func (c *Channel) startLocked() {
	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel

	observers := c.setStateLocked(domain.StateConnecting)
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify(observers, domain.StateConnecting)
	go c.open(ctx, gen)
}

func (c *Channel) open(ctx context.Context, gen uint64) {
	defer c.wg.Done()

	conn, err := c.dialer.Dial(ctx, c.endpoint)
	if err != nil {
		c.log.Warn("Failed to open channel", "endpoint", c.endpoint, "error", err)
		c.handleClose(gen, err)
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		// Disconnected while the dial was in flight.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.cancelDial = nil
	c.retryDelay = c.policy.Delay()
	observers := c.setStateLocked(domain.StateOpen)
	c.mu.Unlock()

	c.log.Info("Channel connected", "endpoint", c.endpoint)
	c.notify(observers, domain.StateOpen)

	c.readLoop(conn, gen)
}

func (c *Channel) readLoop(conn domain.Conn, gen uint64) {
	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		if !c.isCurrent(gen) {
			return
		}
		c.Receive(frame)
	}
}

// Receive decodes one raw frame and dispatches it. Malformed frames are
// logged and dropped; they never affect the connection.
func (c *Channel) Receive(frame []byte) {
	c.metrics.IncFramesReceived()

	msg, err := domain.DecodeMessage(frame)
	if err != nil {
		c.metrics.IncFramesDropped()
		c.log.Warn("Dropping malformed frame", "error", err, "size", len(frame))
		return
	}

	c.dispatcher.Dispatch(msg)
}

func (c *Channel) handleClose(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	observers := c.setStateLocked(domain.StateClosed)
	if !c.suppress {
		c.policy.Schedule(func() { c.reconnect(gen) })
	}
	delay := c.retryDelay
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.log.Info("Channel closed, reconnect scheduled", "endpoint", c.endpoint,
		"retry_in", delay, "cause", cause)
	c.notify(observers, domain.StateClosed)
}

// Disconnect tears the channel down and transitions to Idle. No automatic
// reconnect happens until Connect is called again.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.suppress = true
	c.policy.Cancel()
	c.generation++

	conn := c.conn
	c.conn = nil
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}

	if c.state == domain.StateIdle {
		c.mu.Unlock()
		return
	}
	observers := c.setStateLocked(domain.StateIdle)
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			c.log.Error("Failed to close channel", "endpoint", c.endpoint, "error", err)
		}
	}

	c.log.Info("Channel disconnected", "endpoint", c.endpoint)
	c.notify(observers, domain.StateIdle)
}

// Close disconnects and waits for the dial and read goroutines to exit.
// It must not be called from a dispatch handler.
func (c *Channel) Close() {
	c.Disconnect()
	c.wg.Wait()
}

func (c *Channel) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

func (c *Channel) setStateLocked(state domain.ConnectionState) []func(domain.ConnectionState) {
	c.state = state
	c.metrics.ObserveState(int(state))

	observers := make([]func(domain.ConnectionState), len(c.observers))
	copy(observers, c.observers)
	return observers
}

func (c *Channel) notify(observers []func(domain.ConnectionState), state domain.ConnectionState) {
	for _, fn := range observers {
		fn(state)
	}
}
