package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
)

type EnvelopePublisher struct {
	client  *redis.Client
	channel string
}

func NewEnvelopePublisher(client *redis.Client, channel string) *EnvelopePublisher {
	return &EnvelopePublisher{client: client, channel: channel}
}

// PublishEnvelope republishes a raw {type, data} frame unchanged.
func (r *EnvelopePublisher) PublishEnvelope(ctx context.Context, envelope []byte) error {
	return r.client.Publish(ctx, r.channel, envelope).Err()
}
