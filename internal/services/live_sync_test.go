package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"live-voting/internal/domain"
	"live-voting/internal/infrastructure/websocket"
	"live-voting/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatch(t *testing.T, d *websocket.Dispatcher, frame string) {
	t.Helper()
	msg, err := domain.DecodeMessage([]byte(frame))
	require.NoError(t, err)
	d.Dispatch(msg)
}

func newTestLiveSync(t *testing.T) (*LiveSync, *websocket.Dispatcher, *mockRefresher) {
	t.Helper()
	st, _ := newTestStore(t)
	dispatcher := websocket.NewDispatcher(logger.NewNop(), nil)
	refresher := &mockRefresher{}
	ls := NewLiveSync(dispatcher, st, refresher, logger.NewNop())
	ls.Start(context.Background())
	t.Cleanup(ls.Stop)
	return ls, dispatcher, refresher
}

func TestLiveSync_ResultsMessagesReplaceResults(t *testing.T) {
	ls, d, _ := newTestLiveSync(t)

	dispatch(t, d, `{"type":"initial_data","data":{"results":[{"candidate_id":1,"candidate_name":"Ada","vote_count":1}],"total_votes":1}}`)
	assert.Equal(t, 1, ls.store.Results.Get().TotalVotes)

	dispatch(t, d, `{"type":"results_update","data":{"results":[{"candidate_id":1,"vote_count":1},{"candidate_id":2,"candidate_name":"Grace","vote_count":4}],"total_votes":5}}`)
	assert.Equal(t, 5, ls.store.Results.Get().TotalVotes)
	assert.Equal(t, "Grace", ls.store.Winner.Get().CandidateName)
	assert.Equal(t, 80.0, ls.store.ResultsWithPercentage.Get()[1].Percentage)
}

func TestLiveSync_VoteCastShowsNotification(t *testing.T) {
	ls, d, _ := newTestLiveSync(t)

	dispatch(t, d, `{"type":"vote_cast","data":{"candidate_id":2,"candidate_name":"Grace"}}`)

	assert.Equal(t, &domain.Notification{Message: "New vote for Grace", Kind: domain.NotificationInfo},
		ls.store.Notification.Get())
}

func TestLiveSync_ResetAndUnlockClearVoteStatus(t *testing.T) {
	tests := []struct {
		frame string
		want  domain.Notification
	}{
		{
			frame: `{"type":"reset","data":{"message":"Voting has been reset"}}`,
			want:  domain.Notification{Message: "Voting has been reset", Kind: domain.NotificationWarning},
		},
		{
			frame: `{"type":"unlock","data":{"message":"Vote again"}}`,
			want:  domain.Notification{Message: "Vote again", Kind: domain.NotificationSuccess},
		},
		{
			frame: `{"type":"unlock"}`,
			want:  domain.Notification{Message: "A new voting round has started", Kind: domain.NotificationSuccess},
		},
	}

	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			ls, d, _ := newTestLiveSync(t)
			id := 1
			ls.store.SetVoteStatus(true, &id)

			dispatch(t, d, tt.frame)

			assert.Equal(t, domain.VoteStatus{}, ls.store.VoteStatus.Get())
			assert.Equal(t, &tt.want, ls.store.Notification.Get())
		})
	}
}

func TestLiveSync_CandidatesUpdateReloadsCandidates(t *testing.T) {
	_, d, refresher := newTestLiveSync(t)

	dispatch(t, d, `{"type":"candidates_update","data":{"message":"changed"}}`)

	assert.Eventually(t, func() bool {
		_, loads := refresher.counts()
		return loads == 1
	}, time.Second, 5*time.Millisecond)
}

func TestLiveSync_RefreshesOnOpenOnly(t *testing.T) {
	ls, _, refresher := newTestLiveSync(t)

	ls.HandleStateChange(domain.StateConnecting)
	ls.HandleStateChange(domain.StateOpen)
	ls.HandleStateChange(domain.StateClosed)
	ls.HandleStateChange(domain.StateOpen)

	assert.Eventually(t, func() bool {
		refreshes, _ := refresher.counts()
		return refreshes == 2
	}, time.Second, 5*time.Millisecond)
}

func TestLiveSync_MalformedPayloadLeavesStoreUntouched(t *testing.T) {
	ls, d, _ := newTestLiveSync(t)

	dispatch(t, d, `{"type":"results_update","data":"nope"}`)

	assert.Empty(t, ls.store.Results.Get().Results)
}

func TestLiveSync_StopRemovesHandlers(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	ls := NewLiveSync(d, st, &mockRefresher{}, logger.NewNop())

	ls.Start(context.Background())
	assert.Equal(t, 1, d.Count(domain.MessageVoteCast))
	assert.Equal(t, 1, d.Count(domain.MessageResultsUpdate))

	ls.Stop()
	for _, topic := range []string{
		domain.MessageInitialData, domain.MessageResultsUpdate, domain.MessageVoteCast,
		domain.MessageReset, domain.MessageUnlock, domain.MessageCandidatesUpdate,
	} {
		assert.Zero(t, d.Count(topic), topic)
	}

	dispatch(t, d, `{"type":"vote_cast","data":{"candidate_id":2,"candidate_name":"Grace"}}`)
	assert.Nil(t, st.Notification.Get())
}

func TestLiveSync_NoBackgroundRefreshAfterStop(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	refresher := &mockRefresher{}
	ls := NewLiveSync(d, st, refresher, logger.NewNop())

	ls.Start(context.Background())
	ls.Stop()
	ls.HandleStateChange(domain.StateOpen)

	assert.Never(t, func() bool {
		refreshes, _ := refresher.counts()
		return refreshes > 0
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestLiveSync_StopWhileOpenEventsArrive(t *testing.T) {
	st, _ := newTestStore(t)
	d := websocket.NewDispatcher(logger.NewNop(), nil)
	ls := NewLiveSync(d, st, &mockRefresher{}, logger.NewNop())
	ls.Start(context.Background())

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ls.HandleStateChange(domain.StateOpen)
			}
		}()
	}
	ls.Stop()
	wg.Wait()

	assert.Zero(t, d.Count(domain.MessageResultsUpdate))
}
