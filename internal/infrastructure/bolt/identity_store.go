package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"live-voting/internal/domain"

	bolt "go.etcd.io/bbolt"
)

var bucketIdentity = []byte("identity")

// IdentityStore keeps the client identifier in a local bbolt file so it
// survives restarts.
type IdentityStore struct {
	db *bolt.DB
}

func Open(path string) (*IdentityStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create identity dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketIdentity)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucketIdentity, err)
	}

	return &IdentityStore{db: db}, nil
}

// Get returns the identifier stored under namespace, or domain.ErrNotFound.
func (s *IdentityStore) Get(ctx context.Context, namespace string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketIdentity).Get([]byte(namespace))
		if v == nil {
			return domain.ErrNotFound
		}
		id = string(v)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("get identity %q: %w", namespace, err)
	}
	return id, nil
}

func (s *IdentityStore) Put(ctx context.Context, namespace, clientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIdentity).Put([]byte(namespace), []byte(clientID))
	})
	if err != nil {
		return fmt.Errorf("put identity %q: %w", namespace, err)
	}
	return nil
}

func (s *IdentityStore) Close() error {
	return s.db.Close()
}
