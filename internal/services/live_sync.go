package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"live-voting/internal/domain"
	"live-voting/internal/infrastructure/websocket"
	"live-voting/internal/store"
	"live-voting/pkg/logger"
)

const refreshTimeout = 10 * time.Second

// Refresher reloads server state over request/response calls.
type Refresher interface {
	Refresh(ctx context.Context) error
	LoadCandidates(ctx context.Context) error
}

type subscription struct {
	topic string
	sub   *websocket.Subscription
}

// LiveSync applies push messages to the store and resynchronizes after
// every (re)connect, since pushes missed while offline are never replayed.
type LiveSync struct {
	dispatcher *websocket.Dispatcher
	store      *store.Store
	refresher  Refresher
	log        logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	subs    []subscription
	stopped bool
	wg      sync.WaitGroup
}

func NewLiveSync(dispatcher *websocket.Dispatcher, st *store.Store, refresher Refresher,
	log logger.Logger) *LiveSync {
	return &LiveSync{
		dispatcher: dispatcher,
		store:      st,
		refresher:  refresher,
		log:        log,
	}
}

func (ls *LiveSync) Start(ctx context.Context) {
	ls.log.Info("Starting live sync")

	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.ctx = ctx
	ls.stopped = false
	ls.on(domain.MessageInitialData, websocket.Typed(ls.handleResults))
	ls.on(domain.MessageResultsUpdate, websocket.Typed(ls.handleResults))
	ls.on(domain.MessageVoteCast, websocket.Typed(ls.handleVoteCast))
	ls.on(domain.MessageReset, websocket.Typed(ls.handleReset))
	ls.on(domain.MessageUnlock, websocket.Typed(ls.handleUnlock))
	ls.on(domain.MessageCandidatesUpdate, websocket.Typed(ls.handleCandidatesUpdate))
}

// Stop removes every handler registered by Start and waits for background
// refreshes to finish.
func (ls *LiveSync) Stop() {
	ls.mu.Lock()
	subs := ls.subs
	ls.subs = nil
	ls.stopped = true
	ls.mu.Unlock()

	for _, s := range subs {
		ls.dispatcher.Off(s.topic, s.sub)
	}
	ls.wg.Wait()
	ls.log.Info("Live sync stopped")
}

// HandleStateChange refetches everything whenever the channel (re)opens.
func (ls *LiveSync) HandleStateChange(state domain.ConnectionState) {
	if state != domain.StateOpen {
		return
	}
	ls.background("resync", ls.refresher.Refresh)
}

func (ls *LiveSync) on(topic string, h websocket.Handler) {
	ls.subs = append(ls.subs, subscription{topic: topic, sub: ls.dispatcher.On(topic, h)})
}

func (ls *LiveSync) handleResults(results domain.ResultSet) error {
	ls.store.SetResults(results)
	return nil
}

func (ls *LiveSync) handleVoteCast(data domain.VoteCastData) error {
	ls.store.ShowNotification(fmt.Sprintf("New vote for %s", data.CandidateName), domain.NotificationInfo)
	return nil
}

func (ls *LiveSync) handleReset(data domain.InfoData) error {
	ls.store.SetVoteStatus(false, nil)
	ls.store.ShowNotification(messageOr(data.Message, "Voting has been reset"), domain.NotificationWarning)
	return nil
}

func (ls *LiveSync) handleUnlock(data domain.InfoData) error {
	ls.store.SetVoteStatus(false, nil)
	ls.store.ShowNotification(messageOr(data.Message, "A new voting round has started"), domain.NotificationSuccess)
	return nil
}

func (ls *LiveSync) handleCandidatesUpdate(domain.InfoData) error {
	ls.background("reload candidates", ls.refresher.LoadCandidates)
	return nil
}

// background runs fn off the read loop so request latency never delays
// delivery of the following pushes.
func (ls *LiveSync) background(name string, fn func(context.Context) error) {
	ls.mu.Lock()
	if ls.stopped {
		ls.mu.Unlock()
		ls.log.Debug("Skipping background refresh after stop", "job", name)
		return
	}
	parent := ls.ctx
	ls.wg.Add(1)
	ls.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}

	go func() {
		defer ls.wg.Done()

		ctx, cancel := context.WithTimeout(parent, refreshTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			ls.log.Warn("Background refresh failed", "job", name, "error", err)
		}
	}()
}

func messageOr(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
