package services

import (
	"context"
	"time"

	"live-voting/internal/domain"
	"live-voting/internal/infrastructure/websocket"
	"live-voting/pkg/logger"

	"github.com/jonboulle/clockwork"
)

const recordTimeout = 5 * time.Second

// VoteRecorder journals every vote_cast push this client observes.
type VoteRecorder struct {
	dispatcher *websocket.Dispatcher
	repo       domain.VoteEventRepository
	clientID   string
	clock      clockwork.Clock
	log        logger.Logger

	ctx context.Context
	sub *websocket.Subscription
}

func NewVoteRecorder(dispatcher *websocket.Dispatcher, repo domain.VoteEventRepository,
	clientID string, clock clockwork.Clock, log logger.Logger) *VoteRecorder {
	return &VoteRecorder{
		dispatcher: dispatcher,
		repo:       repo,
		clientID:   clientID,
		clock:      clock,
		log:        log,
	}
}

func (vr *VoteRecorder) Start(ctx context.Context) {
	vr.ctx = ctx
	vr.sub = vr.dispatcher.On(domain.MessageVoteCast, websocket.Typed(vr.record))
	vr.log.Info("Vote journal started")
}

func (vr *VoteRecorder) Stop() {
	if vr.sub != nil {
		vr.dispatcher.Off(domain.MessageVoteCast, vr.sub)
		vr.sub = nil
	}
}

func (vr *VoteRecorder) record(data domain.VoteCastData) error {
	ctx, cancel := context.WithTimeout(vr.ctx, recordTimeout)
	defer cancel()

	event := &domain.VoteEvent{
		CandidateID:   data.CandidateID,
		CandidateName: data.CandidateName,
		ClientID:      vr.clientID,
		ReceivedAt:    vr.clock.Now(),
	}
	if err := vr.repo.SaveVoteEvent(ctx, event); err != nil {
		vr.log.Error("Failed to save vote event", "candidate_id", data.CandidateID, "error", err)
		return err
	}
	return nil
}
