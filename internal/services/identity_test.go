package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"live-voting/internal/domain"
	"live-voting/pkg/logger"
	"live-voting/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryIdentityStore struct {
	mu     sync.Mutex
	ids    map[string]string
	getErr error
	puts   int
}

func (m *memoryIdentityStore) Get(ctx context.Context, namespace string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	id, ok := m.ids[namespace]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (m *memoryIdentityStore) Put(ctx context.Context, namespace, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = make(map[string]string)
	}
	m.ids[namespace] = clientID
	m.puts++
	return nil
}

func TestIdentityService_GeneratesOnceAndReuses(t *testing.T) {
	store := &memoryIdentityStore{}
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1700000000123))
	device := utils.Device{UserAgent: "livevote/1.0", Screen: "0x0", Timezone: "UTC"}
	svc := NewIdentityService(store, "easywahl_client_id", device, clock, logger.NewNop())

	id, err := svc.ClientID(context.Background())
	require.NoError(t, err)

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, strconv.FormatInt(1700000000123, 10), parts[0])
	assert.NotEmpty(t, parts[1])
	assert.Equal(t, utils.Fingerprint(device), parts[2])

	again, err := svc.ClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, store.puts)
	assert.Equal(t, id, store.ids["easywahl_client_id"])
}

func TestIdentityService_StoreFailure(t *testing.T) {
	store := &memoryIdentityStore{getErr: assert.AnError}
	svc := NewIdentityService(store, "ns", utils.Device{}, clockwork.NewFakeClock(), logger.NewNop())

	_, err := svc.ClientID(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoIdentity)
	assert.Zero(t, store.puts)
}
