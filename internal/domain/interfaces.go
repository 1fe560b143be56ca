package domain

import (
	"context"
)

// Conn is one physical duplex connection. ReadMessage blocks until a frame
// arrives or the connection is closed.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens physical connections to the push endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// VotingAPI is the request/response side of the voting server.
type VotingAPI interface {
	GetCandidates(ctx context.Context) ([]Candidate, error)
	CastVote(ctx context.Context, clientID string, candidateID int) (*VoteResponse, error)
	CheckVoteStatus(ctx context.Context, clientID string) (*VoteCheckResponse, error)
	GetResults(ctx context.Context) (*ResultSet, error)
}

// AdminAPI covers the administrative endpoints of the voting server.
type AdminAPI interface {
	GetServerStatus(ctx context.Context) (*ServerStatus, error)
	GetVoteTitle(ctx context.Context) (string, error)
	ResetVotes(ctx context.Context) (*AdminResponse, error)
	UnlockClients(ctx context.Context) (*AdminResponse, error)
}

// IdentityStore persists the opaque client identifier.
type IdentityStore interface {
	Get(ctx context.Context, namespace string) (string, error)
	Put(ctx context.Context, namespace, clientID string) error
}

type VoteEventRepository interface {
	SaveVoteEvent(ctx context.Context, event *VoteEvent) error
	ListVoteEvents(ctx context.Context, limit int) ([]*VoteEvent, error)
}

// EventPublisher republishes raw push envelopes to other local consumers.
type EventPublisher interface {
	PublishEnvelope(ctx context.Context, envelope []byte) error
}

// Lease reports whether this process is the elected holder of a shared role.
type Lease interface {
	Held() bool
}

type ResultSnapshotCache interface {
	SaveResults(ctx context.Context, results ResultSet) error
	GetResults(ctx context.Context) (*ResultSet, error)
}

// Broadcaster pushes envelopes to every connected push client (mock server side).
type Broadcaster interface {
	Broadcast(msg Message) error
}
