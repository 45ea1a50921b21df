package redis

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"

	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

const invalidationChannel = "cache_invalidation"

// InvalidationPublisher broadcasts cache tags over Redis pub/sub so every
// instance's in-process cache clears together after a mutation.
type InvalidationPublisher struct {
	client *redis.Client
}

func NewInvalidationPublisher(client *redis.Client) *InvalidationPublisher {
	return &InvalidationPublisher{client: client}
}

func (p *InvalidationPublisher) PublishInvalidation(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	// One message per mutation; tags are comma-joined and never contain
	// commas themselves (ids are uuids and dates).
	return p.client.Publish(ctx, invalidationChannel, strings.Join(tags, ",")).Err()
}

// InvalidationSubscriber feeds received tags into a handler, typically the
// cache coordinator's Invalidate.
type InvalidationSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewInvalidationSubscriber(client *redis.Client, log logger.Logger) *InvalidationSubscriber {
	return &InvalidationSubscriber{
		client: client,
		log:    log,
	}
}

func (s *InvalidationSubscriber) SubscribeToInvalidations(ctx context.Context, handler domain.InvalidationHandler) error {
	pubsub := s.client.Subscribe(ctx, invalidationChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	s.log.Info("Subscribed to cache invalidations")

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			for _, tag := range strings.Split(msg.Payload, ",") {
				if tag == "" {
					continue
				}
				handler(tag)
			}

		case <-ctx.Done():
			s.log.Info("Invalidation subscriber stopped")
			return ctx.Err()
		}
	}
}
