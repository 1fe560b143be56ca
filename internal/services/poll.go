package services

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"live-voting/internal/domain"
	"live-voting/pkg/logger"

	"github.com/jonboulle/clockwork"
)

const defaultVoteTitle = "Live vote"

var ErrEmptyName = errors.New("name must not be empty")

// Poll is the in-memory voting backend used by the mock server. Each client
// may vote once per round; Unlock starts a new round, Reset also discards
// the votes. Every change is broadcast to push clients.
type Poll struct {
	broadcaster domain.Broadcaster
	clock       clockwork.Clock
	log         logger.Logger

	// publishMu orders mutations with their broadcasts so push clients see
	// results in the order they were produced.
	publishMu sync.Mutex

	mu         sync.RWMutex
	candidates map[int]domain.Candidate
	nextID     int
	votes      map[int]int     // candidate id -> count
	locked     map[string]bool // client id -> voted this round
	title      string
}

func NewPoll(broadcaster domain.Broadcaster, clock clockwork.Clock, log logger.Logger) *Poll {
	return &Poll{
		broadcaster: broadcaster,
		clock:       clock,
		log:         log,
		candidates:  make(map[int]domain.Candidate),
		nextID:      1,
		votes:       make(map[int]int),
		locked:      make(map[string]bool),
	}
}

// Candidates returns all candidates ordered by name.
func (p *Poll) Candidates() []domain.Candidate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.candidatesLocked()
}

func (p *Poll) AddCandidate(name, description string) (domain.Candidate, error) {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Candidate{}, ErrEmptyName
	}

	p.mu.Lock()
	candidate := domain.Candidate{
		ID:          p.nextID,
		Name:        name,
		Description: description,
		CreatedAt:   p.clock.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	p.candidates[candidate.ID] = candidate
	p.nextID++
	results := p.resultsLocked()
	p.mu.Unlock()

	p.log.Info("Candidate added", "candidate_id", candidate.ID, "name", name)
	p.broadcastCandidatesChanged(results)
	return candidate, nil
}

func (p *Poll) UpdateCandidate(id int, name, description string) (domain.Candidate, error) {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Candidate{}, ErrEmptyName
	}

	p.mu.Lock()
	candidate, ok := p.candidates[id]
	if !ok {
		p.mu.Unlock()
		return domain.Candidate{}, domain.ErrNotFound
	}
	candidate.Name = name
	candidate.Description = description
	p.candidates[id] = candidate
	results := p.resultsLocked()
	p.mu.Unlock()

	p.broadcastCandidatesChanged(results)
	return candidate, nil
}

// DeleteCandidate removes the candidate together with its votes.
func (p *Poll) DeleteCandidate(id int) error {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	p.mu.Lock()
	if _, ok := p.candidates[id]; !ok {
		p.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(p.candidates, id)
	delete(p.votes, id)
	results := p.resultsLocked()
	p.mu.Unlock()

	p.log.Info("Candidate deleted", "candidate_id", id)
	p.broadcastCandidatesChanged(results)
	return nil
}

// CastVote records one vote. Clients that already voted this round, and
// votes for unknown candidates, get an unsuccessful response.
func (p *Poll) CastVote(clientID string, candidateID int) domain.VoteResponse {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	p.mu.Lock()
	candidate, ok := p.candidates[candidateID]
	if !ok || p.locked[clientID] {
		p.mu.Unlock()
		return domain.VoteResponse{
			Success: false,
			Message: "You have already voted or the candidate does not exist",
		}
	}
	p.votes[candidateID]++
	p.locked[clientID] = true
	results := p.resultsLocked()
	p.mu.Unlock()

	p.log.Info("Vote cast", "client_id", clientID, "candidate_id", candidateID)
	p.broadcast(domain.MessageVoteCast, domain.VoteCastData{
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
	})
	p.broadcast(domain.MessageResultsUpdate, results)

	return domain.VoteResponse{Success: true, Message: "Your vote has been recorded"}
}

func (p *Poll) HasVoted(clientID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.locked[clientID]
}

// Results are ordered by vote count, then by name.
func (p *Poll) Results() domain.ResultSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resultsLocked()
}

// Reset discards all votes and unlocks every client.
func (p *Poll) Reset() domain.AdminResponse {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	p.mu.Lock()
	p.votes = make(map[int]int)
	p.locked = make(map[string]bool)
	results := p.resultsLocked()
	p.mu.Unlock()

	p.log.Info("Votes reset")
	p.broadcast(domain.MessageReset, domain.InfoData{Message: "Voting has been reset"})
	p.broadcast(domain.MessageResultsUpdate, results)

	return domain.AdminResponse{Success: true, Message: "All votes have been reset"}
}

// Unlock starts a new round: votes are kept, every client may vote again.
func (p *Poll) Unlock() domain.AdminResponse {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	p.mu.Lock()
	p.locked = make(map[string]bool)
	p.mu.Unlock()

	p.log.Info("Clients unlocked")
	p.broadcast(domain.MessageUnlock, domain.InfoData{Message: "A new voting round has started, you can vote again"})

	return domain.AdminResponse{Success: true, Message: "All clients have been unlocked"}
}

func (p *Poll) Status(port int) domain.ServerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.ServerStatus{
		Running:         true,
		TotalCandidates: len(p.candidates),
		TotalVotes:      p.totalLocked(),
		Port:            port,
	}
}

func (p *Poll) Title() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.title == "" {
		return defaultVoteTitle
	}
	return p.title
}

func (p *Poll) SetTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyName
	}
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
	return title, nil
}

// InitialData is the message sent to every newly connected push client.
func (p *Poll) InitialData() (domain.Message, error) {
	return domain.NewMessage(domain.MessageInitialData, p.Results())
}

func (p *Poll) candidatesLocked() []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(p.candidates))
	for _, c := range p.candidates {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Name != candidates[j].Name {
			return candidates[i].Name < candidates[j].Name
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

func (p *Poll) resultsLocked() domain.ResultSet {
	candidates := p.candidatesLocked()
	results := make([]domain.VoteResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, domain.VoteResult{
			CandidateID:   c.ID,
			CandidateName: c.Name,
			Description:   c.Description,
			VoteCount:     p.votes[c.ID],
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].VoteCount > results[j].VoteCount
	})
	return domain.ResultSet{Results: results, TotalVotes: p.totalLocked()}
}

func (p *Poll) totalLocked() int {
	total := 0
	for _, n := range p.votes {
		total += n
	}
	return total
}

func (p *Poll) broadcastCandidatesChanged(results domain.ResultSet) {
	p.broadcast(domain.MessageCandidatesUpdate, domain.InfoData{Message: "The candidate list has been updated"})
	p.broadcast(domain.MessageResultsUpdate, results)
}

func (p *Poll) broadcast(msgType string, data interface{}) {
	if p.broadcaster == nil {
		return
	}

	msg, err := domain.NewMessage(msgType, data)
	if err != nil {
		p.log.Error("Failed to encode broadcast", "type", msgType, "error", err)
		return
	}
	if err := p.broadcaster.Broadcast(msg); err != nil {
		p.log.Error("Failed to broadcast", "type", msgType, "error", err)
	}
}
