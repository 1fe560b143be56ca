package domain

import (
	"time"
)

type Candidate struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type VoteResult struct {
	CandidateID   int    `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	Description   string `json:"description,omitempty"`
	VoteCount     int    `json:"vote_count"`
}

// ResultSet is replaced wholesale on every load or push. TotalVotes comes
// from the server and is not guaranteed to equal the sum of VoteCount.
type ResultSet struct {
	Results    []VoteResult `json:"results"`
	TotalVotes int          `json:"total_votes"`
}

// ResultWithPercentage annotates a result with its share of TotalVotes.
type ResultWithPercentage struct {
	VoteResult
	Percentage float64 `json:"percentage"`
}

// VoteStatus tracks whether this client has voted in the current round.
// VotedCandidateID is only ever set when HasVoted is true; HasVoted with a
// nil candidate is a valid upstream state.
type VoteStatus struct {
	HasVoted         bool `json:"has_voted"`
	VotedCandidateID *int `json:"voted_candidate_id"`
}

type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationWarning NotificationKind = "warning"
	NotificationError   NotificationKind = "error"
)

type Notification struct {
	Message string           `json:"message"`
	Kind    NotificationKind `json:"type"`
}

type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// VoteEvent is a vote_cast push as recorded by the vote journal.
type VoteEvent struct {
	CandidateID   int
	CandidateName string
	ClientID      string
	ReceivedAt    time.Time
}

type VoteRequest struct {
	ClientID    string `json:"client_id"`
	CandidateID int    `json:"candidate_id"`
}

type VoteCheckRequest struct {
	ClientID string `json:"client_id"`
}

type VoteCheckResponse struct {
	HasVoted bool `json:"has_voted"`
}

type VoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AdminResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ServerStatus struct {
	Running         bool `json:"running"`
	TotalCandidates int  `json:"total_candidates"`
	TotalVotes      int  `json:"total_votes"`
	Port            int  `json:"port"`
}
