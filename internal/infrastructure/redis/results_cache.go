package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"live-voting/internal/domain"

	"github.com/go-redis/redis/v8"
)

// ResultsCache keeps the latest ResultSet under a single key.
type ResultsCache struct {
	client *redis.Client
	key    string
}

func NewResultsCache(client *redis.Client, key string) *ResultsCache {
	return &ResultsCache{client: client, key: key}
}

func (r *ResultsCache) SaveResults(ctx context.Context, results domain.ResultSet) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return r.client.Set(ctx, r.key, payload, 0).Err()
}

// GetResults returns domain.ErrNotFound when no snapshot has been stored yet.
func (r *ResultsCache) GetResults(ctx context.Context) (*domain.ResultSet, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var results domain.ResultSet
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	return &results, nil
}
