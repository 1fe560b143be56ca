package mysql

import (
	"context"
	"database/sql"
	"time"

	"live-voting/internal/domain"
)

const createVoteEventsTable = `
    CREATE TABLE IF NOT EXISTS vote_events (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        candidate_id INT NOT NULL,
        candidate_name VARCHAR(255) NOT NULL,
        client_id VARCHAR(128) NOT NULL,
        received_at DATETIME(3) NOT NULL,
        created_at DATETIME(3) NOT NULL,
        INDEX idx_vote_events_received_at (received_at)
    )
`

type MySQLVoteEventRepository struct {
	db *sql.DB
}

func NewMySQLVoteEventRepository(db *sql.DB) *MySQLVoteEventRepository {
	return &MySQLVoteEventRepository{db: db}
}

// EnsureSchema creates the vote_events table when it does not exist yet.
func (r *MySQLVoteEventRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createVoteEventsTable)
	return err
}

func (r *MySQLVoteEventRepository) SaveVoteEvent(ctx context.Context, event *domain.VoteEvent) error {
	query := `
        INSERT INTO vote_events (candidate_id, candidate_name, client_id, received_at, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		event.CandidateID, event.CandidateName, event.ClientID,
		event.ReceivedAt, time.Now())
	return err
}

// ListVoteEvents returns the most recent events, newest first.
func (r *MySQLVoteEventRepository) ListVoteEvents(ctx context.Context, limit int) ([]*domain.VoteEvent, error) {
	query := `
        SELECT candidate_id, candidate_name, client_id, received_at
        FROM vote_events
        ORDER BY received_at DESC, id DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.VoteEvent
	for rows.Next() {
		var event domain.VoteEvent

		err := rows.Scan(&event.CandidateID, &event.CandidateName,
			&event.ClientID, &event.ReceivedAt)
		if err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
