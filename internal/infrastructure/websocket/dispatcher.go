package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"live-voting/internal/domain"
	"live-voting/internal/metrics"
	"live-voting/pkg/logger"
)

// Handler receives the data of a message for concrete topics, or the full
// {type, data} envelope for the wildcard topic.
type Handler func(payload json.RawMessage) error

// Subscription is the handle returned by On. It identifies one registration.
type Subscription struct {
	topic   string
	handler Handler
}

func (s *Subscription) Topic() string { return s.topic }

// Typed adapts a handler for a concrete topic to a decoded payload type.
func Typed[T any](fn func(T) error) Handler {
	return func(payload json.RawMessage) error {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return fn(v)
	}
}

// Dispatcher routes messages to subscribers by topic. Subscriptions are not
// tied to any connection and survive reconnects.
type Dispatcher struct {
	mu      sync.Mutex
	topics  map[string][]*Subscription
	log     logger.Logger
	metrics *metrics.ChannelMetrics
}

func NewDispatcher(log logger.Logger, m *metrics.ChannelMetrics) *Dispatcher {
	return &Dispatcher{
		topics:  make(map[string][]*Subscription),
		log:     log,
		metrics: m,
	}
}

// On registers handler under topic. Use domain.WildcardTopic to receive every message.
func (d *Dispatcher) On(topic string, handler Handler) *Subscription {
	sub := &Subscription{topic: topic, handler: handler}

	d.mu.Lock()
	d.topics[topic] = append(d.topics[topic], sub)
	d.mu.Unlock()

	return sub
}

// Off removes the first occurrence of sub from topic. Unknown topics or
// subscriptions are ignored.
func (d *Dispatcher) Off(topic string, sub *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs, exists := d.topics[topic]
	if !exists {
		return
	}

	for i, existing := range subs {
		if existing != sub {
			continue
		}
		// Build a fresh slice: snapshots taken by in-flight dispatches keep
		// pointing at the old backing array.
		newSubs := make([]*Subscription, 0, len(subs)-1)
		newSubs = append(newSubs, subs[:i]...)
		newSubs = append(newSubs, subs[i+1:]...)
		if len(newSubs) == 0 {
			delete(d.topics, topic)
		} else {
			d.topics[topic] = newSubs
		}
		return
	}
}

// Count returns the number of subscriptions registered under topic.
func (d *Dispatcher) Count(topic string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.topics[topic])
}

// Dispatch delivers msg to the topic subscribers and then to the wildcard
// subscribers, each in registration order. The lists are snapshotted first,
// so On/Off calls made by a handler take effect from the next dispatch.
func (d *Dispatcher) Dispatch(msg domain.Message) {
	d.mu.Lock()
	topicSubs := d.topics[msg.Type]
	wildcardSubs := d.topics[domain.WildcardTopic]
	if msg.Type == domain.WildcardTopic {
		topicSubs = nil
	}
	d.mu.Unlock()

	for _, sub := range topicSubs {
		d.invoke(msg.Type, sub, msg.Data)
	}

	if len(wildcardSubs) == 0 {
		return
	}
	envelope := msg.Envelope()
	for _, sub := range wildcardSubs {
		d.invoke(msg.Type, sub, envelope)
	}
}

func (d *Dispatcher) invoke(msgType string, sub *Subscription, payload json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.IncHandlerErrors(msgType)
			d.log.Error("Subscriber panicked", "type", msgType, "topic", sub.topic, "panic", r)
		}
	}()

	if err := sub.handler(payload); err != nil {
		d.metrics.IncHandlerErrors(msgType)
		d.log.Error("Subscriber failed", "type", msgType, "topic", sub.topic, "error", err)
	}
}
