package services

import (
	"context"
	"errors"
	"fmt"

	"live-voting/internal/domain"
	"live-voting/pkg/logger"
	"live-voting/pkg/utils"

	"github.com/jonboulle/clockwork"
)

// IdentityService hands out the client's opaque id, generating and
// persisting it on first use.
type IdentityService struct {
	store     domain.IdentityStore
	namespace string
	device    utils.Device
	clock     clockwork.Clock
	log       logger.Logger
}

func NewIdentityService(store domain.IdentityStore, namespace string, device utils.Device,
	clock clockwork.Clock, log logger.Logger) *IdentityService {
	return &IdentityService{
		store:     store,
		namespace: namespace,
		device:    device,
		clock:     clock,
		log:       log,
	}
}

func (s *IdentityService) ClientID(ctx context.Context) (string, error) {
	id, err := s.store.Get(ctx, s.namespace)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("%w: %v", domain.ErrNoIdentity, err)
	}

	id = utils.NewClientID(s.clock.Now(), s.device)
	if err := s.store.Put(ctx, s.namespace, id); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoIdentity, err)
	}

	s.log.Info("Generated client id", "client_id", id)
	return id, nil
}
