package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"live-voting/internal/domain"
	"live-voting/internal/store"
	"live-voting/pkg/logger"
)

// VotingService runs the request/response calls and mirrors their outcome
// into the store: data on success, a user-facing message on failure.
type VotingService struct {
	api      domain.VotingAPI
	store    *store.Store
	clientID string
	log      logger.Logger

	mu       sync.Mutex
	inflight int
}

func NewVotingService(api domain.VotingAPI, st *store.Store, clientID string, log logger.Logger) *VotingService {
	return &VotingService{
		api:      api,
		store:    st,
		clientID: clientID,
		log:      log,
	}
}

func (vs *VotingService) ClientID() string {
	return vs.clientID
}

func (vs *VotingService) LoadCandidates(ctx context.Context) error {
	defer vs.begin()()

	candidates, err := vs.api.GetCandidates(ctx)
	if err != nil {
		vs.log.Error("Failed to load candidates", "error", err)
		vs.store.SetError("Failed to load candidates")
		return err
	}

	vs.store.SetCandidates(candidates)
	return nil
}

func (vs *VotingService) LoadResults(ctx context.Context) error {
	defer vs.begin()()

	results, err := vs.api.GetResults(ctx)
	if err != nil {
		vs.log.Error("Failed to load results", "error", err)
		vs.store.SetError("Failed to load results")
		return err
	}

	vs.store.SetResults(*results)
	return nil
}

// CheckVoteStatus asks the server whether this client has voted. A locally
// known candidate is kept while the server still reports a vote.
func (vs *VotingService) CheckVoteStatus(ctx context.Context) error {
	defer vs.begin()()

	resp, err := vs.api.CheckVoteStatus(ctx, vs.clientID)
	if err != nil {
		vs.log.Error("Failed to check vote status", "client_id", vs.clientID, "error", err)
		vs.store.SetError("Failed to check vote status")
		return err
	}

	vs.store.SetVoteStatus(resp.HasVoted, vs.store.VoteStatus.Get().VotedCandidateID)
	return nil
}

// CastVote submits a vote for candidateID. A vote the server refuses yields
// domain.ErrVoteRejected and leaves the vote status untouched.
func (vs *VotingService) CastVote(ctx context.Context, candidateID int) error {
	defer vs.begin()()

	resp, err := vs.api.CastVote(ctx, vs.clientID, candidateID)
	if err != nil {
		vs.log.Error("Failed to cast vote", "candidate_id", candidateID, "error", err)
		vs.store.SetError("Failed to cast vote")
		return err
	}

	if !resp.Success {
		vs.log.Warn("Vote rejected", "candidate_id", candidateID, "message", resp.Message)
		vs.store.SetError(resp.Message)
		return fmt.Errorf("%w: %s", domain.ErrVoteRejected, resp.Message)
	}

	vs.store.SetVoteStatus(true, &candidateID)
	vs.store.ShowNotification(resp.Message, domain.NotificationSuccess)
	vs.log.Info("Vote cast", "candidate_id", candidateID)
	return nil
}

// Refresh reloads candidates, results and vote status. All three are
// attempted even when one fails.
func (vs *VotingService) Refresh(ctx context.Context) error {
	defer vs.begin()()

	return errors.Join(
		vs.LoadCandidates(ctx),
		vs.LoadResults(ctx),
		vs.CheckVoteStatus(ctx),
	)
}

// begin marks a request in flight and returns the matching end func. The
// Loading cell stays true until the last overlapping request finishes.
func (vs *VotingService) begin() func() {
	vs.mu.Lock()
	vs.inflight++
	first := vs.inflight == 1
	vs.mu.Unlock()
	if first {
		vs.store.SetLoading(true)
	}

	return func() {
		vs.mu.Lock()
		vs.inflight--
		last := vs.inflight == 0
		vs.mu.Unlock()
		if last {
			vs.store.SetLoading(false)
		}
	}
}
