package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"live-voting/internal/domain"
	"live-voting/internal/infrastructure/websocket"
	"live-voting/internal/store"
	"live-voting/pkg/logger"
)

const mirrorTimeout = 2 * time.Second

// Mirror republishes every push envelope and keeps a snapshot of the latest
// results outside the process.
type Mirror struct {
	dispatcher *websocket.Dispatcher
	publisher  domain.EventPublisher
	cache      domain.ResultSnapshotCache
	store      *store.Store
	log        logger.Logger
	lease      domain.Lease

	mu          sync.Mutex
	ctx         context.Context
	sub         *websocket.Subscription
	unsubscribe func()
}

func NewMirror(dispatcher *websocket.Dispatcher, publisher domain.EventPublisher,
	cache domain.ResultSnapshotCache, st *store.Store, log logger.Logger) *Mirror {
	return &Mirror{
		dispatcher: dispatcher,
		publisher:  publisher,
		cache:      cache,
		store:      st,
		log:        log,
	}
}

// SetLease restricts mirroring to periods where lease is held, so several
// processes sharing one Redis do not publish every envelope more than once.
func (m *Mirror) SetLease(lease domain.Lease) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lease = lease
}

func (m *Mirror) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.sub = m.dispatcher.On(domain.WildcardTopic, m.publish)
	m.mu.Unlock()

	// Subscribe delivers the current value, which is the empty placeholder
	// until results were loaded at least once; only snapshot real data.
	unsubscribe := m.store.Results.Subscribe(func(results domain.ResultSet) {
		if m.store.Results.Version() == 0 {
			return
		}
		m.snapshot(results)
	})

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	m.log.Info("Mirror started")
}

func (m *Mirror) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sub != nil {
		m.dispatcher.Off(domain.WildcardTopic, m.sub)
		m.sub = nil
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Mirror) publish(envelope json.RawMessage) error {
	if !m.leading() {
		return nil
	}
	ctx, cancel := context.WithTimeout(m.context(), mirrorTimeout)
	defer cancel()

	if err := m.publisher.PublishEnvelope(ctx, envelope); err != nil {
		m.log.Error("Failed to mirror envelope", "error", err)
		return err
	}
	return nil
}

func (m *Mirror) snapshot(results domain.ResultSet) {
	if !m.leading() {
		return
	}
	ctx, cancel := context.WithTimeout(m.context(), mirrorTimeout)
	defer cancel()

	if err := m.cache.SaveResults(ctx, results); err != nil {
		m.log.Error("Failed to save results snapshot", "error", err)
	}
}

func (m *Mirror) leading() bool {
	m.mu.Lock()
	lease := m.lease
	m.mu.Unlock()
	return lease == nil || lease.Held()
}

func (m *Mirror) context() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}
