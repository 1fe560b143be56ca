package services

import (
	"context"
	"sync/atomic"
	"testing"

	"live-voting/internal/domain"
	"live-voting/internal/infrastructure/websocket"
	"live-voting/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror_PublishesEveryEnvelope(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	publisher := &mockPublisher{}
	mirror := NewMirror(d, publisher, &mockSnapshotCache{}, st, logger.NewNop())
	mirror.Start(context.Background())
	defer mirror.Stop()

	frames := []string{
		`{"type":"vote_cast","data":{"candidate_id":1,"candidate_name":"Ada"}}`,
		`{"type":"something_new","data":[1,2,3]}`,
	}
	for _, frame := range frames {
		dispatch(t, d, frame)
	}

	assert.Equal(t, frames, publisher.published())
}

func TestMirror_SnapshotsResultUpdatesOnly(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	cache := &mockSnapshotCache{}
	mirror := NewMirror(d, &mockPublisher{}, cache, st, logger.NewNop())
	mirror.Start(context.Background())
	defer mirror.Stop()

	_, err := cache.GetResults(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound, "the empty initial value is not a snapshot")

	want := domain.ResultSet{Results: []domain.VoteResult{{CandidateID: 1, VoteCount: 2}}, TotalVotes: 2}
	st.SetResults(want)

	got, err := cache.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestMirror_PublishFailureIsIsolated(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	mirror := NewMirror(d, &mockPublisher{err: assert.AnError}, &mockSnapshotCache{}, st, logger.NewNop())
	mirror.Start(context.Background())
	defer mirror.Stop()

	ls := NewLiveSync(d, st, &mockRefresher{}, logger.NewNop())
	ls.Start(context.Background())
	defer ls.Stop()

	dispatch(t, d, `{"type":"results_update","data":{"results":[],"total_votes":4}}`)

	assert.Equal(t, 4, st.Results.Get().TotalVotes)
}

func TestMirror_Stop(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	publisher := &mockPublisher{}
	cache := &mockSnapshotCache{}
	mirror := NewMirror(d, publisher, cache, st, logger.NewNop())

	mirror.Start(context.Background())
	mirror.Stop()

	dispatch(t, d, `{"type":"vote_cast","data":{}}`)
	st.SetResults(domain.ResultSet{TotalVotes: 1})

	assert.Empty(t, publisher.published())
	_, err := cache.GetResults(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, d.Count(domain.WildcardTopic))
}

type fakeLease struct{ held atomic.Bool }

func (l *fakeLease) Held() bool { return l.held.Load() }

func TestMirror_OnlyMirrorsWhileLeaseHeld(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	publisher := &mockPublisher{}
	cache := &mockSnapshotCache{}
	lease := &fakeLease{}

	mirror := NewMirror(d, publisher, cache, st, logger.NewNop())
	mirror.SetLease(lease)
	mirror.Start(context.Background())
	defer mirror.Stop()

	dispatch(t, d, `{"type":"vote_cast","data":{"candidate_id":1,"candidate_name":"Ada"}}`)
	st.SetResults(domain.ResultSet{TotalVotes: 1})
	assert.Empty(t, publisher.published())
	_, err := cache.GetResults(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	lease.held.Store(true)
	dispatch(t, d, `{"type":"reset","data":{"message":"new round"}}`)
	st.SetResults(domain.ResultSet{TotalVotes: 0})
	assert.Equal(t, []string{`{"type":"reset","data":{"message":"new round"}}`}, publisher.published())
	got, err := cache.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalVotes)
}

func TestMirror_SnapshotsResultsLoadedBeforeStart(t *testing.T) {
	st, _ := newTestStore(t)
	loaded := domain.ResultSet{Results: []domain.VoteResult{{CandidateID: 3, VoteCount: 1}}, TotalVotes: 1}
	st.SetResults(loaded)

	d := websocket.NewDispatcher(logger.NewNop(), nil)
	cache := &mockSnapshotCache{}
	mirror := NewMirror(d, &mockPublisher{}, cache, st, logger.NewNop())
	mirror.Start(context.Background())
	defer mirror.Stop()

	got, err := cache.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, loaded, *got)
}
