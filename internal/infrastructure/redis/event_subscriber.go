package redis

import (
	"context"
	"encoding/json"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/logger"

	"github.com/go-redis/redis/v8"
)

var _ domain.EventSubscriber = (*RedisEventSubscriber)(nil)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

// SubscribeToGroupEvents blocks, handing every decoded event to handler
// until ctx is done.
func (r *RedisEventSubscriber) SubscribeToGroupEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reading.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	ch := pubsub.Channel()

	r.log.Info("Subscribed to multisnipe events")

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event domain.GroupEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Error("Failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(&event); err != nil {
				r.log.Error("Failed to handle event", "type", event.Type, "identifier", event.Identifier, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}
