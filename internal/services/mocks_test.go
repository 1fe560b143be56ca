package services

import (
	"context"
	"sync"
	"testing"

	"live-voting/internal/config"
	"live-voting/internal/domain"
	"live-voting/internal/store"
	"live-voting/pkg/logger"

	"github.com/jonboulle/clockwork"
)

type mockVotingAPI struct {
	mu sync.Mutex

	candidates    []domain.Candidate
	candidatesErr error
	results       *domain.ResultSet
	resultsErr    error
	hasVoted      bool
	checkErr      error
	voteResp      *domain.VoteResponse
	voteErr       error

	votes  []int
	checks []string
}

func (m *mockVotingAPI) GetCandidates(ctx context.Context) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candidates, m.candidatesErr
}

func (m *mockVotingAPI) CastVote(ctx context.Context, clientID string, candidateID int) (*domain.VoteResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes = append(m.votes, candidateID)
	return m.voteResp, m.voteErr
}

func (m *mockVotingAPI) CheckVoteStatus(ctx context.Context, clientID string) (*domain.VoteCheckResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, clientID)
	if m.checkErr != nil {
		return nil, m.checkErr
	}
	return &domain.VoteCheckResponse{HasVoted: m.hasVoted}, nil
}

func (m *mockVotingAPI) GetResults(ctx context.Context) (*domain.ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resultsErr != nil {
		return nil, m.resultsErr
	}
	rs := *m.results
	return &rs, nil
}

type mockRefresher struct {
	mu             sync.Mutex
	refreshes      int
	candidateLoads int
	err            error
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	return m.err
}

func (m *mockRefresher) LoadCandidates(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidateLoads++
	return m.err
}

func (m *mockRefresher) counts() (refreshes, candidateLoads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes, m.candidateLoads
}

type mockVoteEventRepository struct {
	mu     sync.Mutex
	events []*domain.VoteEvent
	err    error
}

func (m *mockVoteEventRepository) SaveVoteEvent(ctx context.Context, event *domain.VoteEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockVoteEventRepository) ListVoteEvents(ctx context.Context, limit int) ([]*domain.VoteEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.events) {
		limit = len(m.events)
	}
	return m.events[:limit], nil
}

type mockPublisher struct {
	mu        sync.Mutex
	envelopes []string
	err       error
}

func (m *mockPublisher) PublishEnvelope(ctx context.Context, envelope []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.envelopes = append(m.envelopes, string(envelope))
	return nil
}

func (m *mockPublisher) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.envelopes...)
}

type mockSnapshotCache struct {
	mu    sync.Mutex
	saved []domain.ResultSet
}

func (m *mockSnapshotCache) SaveResults(ctx context.Context, results domain.ResultSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, results)
	return nil
}

func (m *mockSnapshotCache) GetResults(ctx context.Context) (*domain.ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	rs := m.saved[len(m.saved)-1]
	return &rs, nil
}

type mockBroadcaster struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (m *mockBroadcaster) Broadcast(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockBroadcaster) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.messages))
	for i, msg := range m.messages {
		types[i] = msg.Type
	}
	return types
}

func (m *mockBroadcaster) reset() {
	m.mu.Lock()
	m.messages = nil
	m.mu.Unlock()
}

func newTestStore(t *testing.T) (*store.Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	st := store.New(config.StoreConfig{}, clock, logger.NewNop())
	t.Cleanup(st.Close)
	return st, clock
}
