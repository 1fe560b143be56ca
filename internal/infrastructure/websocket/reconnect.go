package websocket

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultReconnectDelay = 5 * time.Second

// ReconnectPolicy retries at a fixed interval, forever. At most one retry is
// pending at a time.
type ReconnectPolicy struct {
	clock clockwork.Clock
	delay time.Duration

	mu    sync.Mutex
	timer clockwork.Timer
	seq   uint64
}

func NewReconnectPolicy(clock clockwork.Clock, delay time.Duration) *ReconnectPolicy {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &ReconnectPolicy{
		clock: clock,
		delay: delay,
	}
}

// Delay is the fixed wait between a close and the next connect attempt.
func (p *ReconnectPolicy) Delay() time.Duration {
	return p.delay
}

// Schedule arms a fire-once timer that calls fn after Delay, replacing any
// retry that is still pending.
func (p *ReconnectPolicy) Schedule(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}

	p.seq++
	seq := p.seq
	p.timer = p.clock.AfterFunc(p.delay, func() {
		p.mu.Lock()
		if p.seq != seq {
			p.mu.Unlock()
			return
		}
		p.timer = nil
		p.mu.Unlock()

		fn()
	})
}

// Cancel disarms the pending retry. It reports whether one was pending.
func (p *ReconnectPolicy) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	if p.timer == nil {
		return false
	}
	p.timer.Stop()
	p.timer = nil
	return true
}

// Pending reports whether a retry is armed and has not fired yet.
func (p *ReconnectPolicy) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}
