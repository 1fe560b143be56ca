package redis

import (
	"context"

	"live-voting/internal/domain"
	"live-voting/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// EnvelopeSubscriber consumes envelopes republished by an EnvelopePublisher.
type EnvelopeSubscriber struct {
	client  *redis.Client
	channel string
	log     logger.Logger
}

func NewEnvelopeSubscriber(client *redis.Client, channel string, log logger.Logger) *EnvelopeSubscriber {
	return &EnvelopeSubscriber{
		client:  client,
		channel: channel,
		log:     log,
	}
}

// Subscribe blocks, calling handler for every decodable envelope, until ctx
// is cancelled.
func (r *EnvelopeSubscriber) Subscribe(ctx context.Context, handler func(domain.Message) error) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	ch := pubsub.Channel()

	r.log.Info("Subscribed to mirrored envelopes", "channel", r.channel)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			envelope, err := domain.DecodeMessage([]byte(msg.Payload))
			if err != nil {
				r.log.Error("Failed to parse envelope", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(envelope); err != nil {
				r.log.Error("Failed to handle envelope", "type", envelope.Type, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Envelope subscriber stopped")
			return ctx.Err()
		}
	}
}
