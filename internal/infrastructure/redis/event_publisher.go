package redis

import (
	"context"
	"encoding/json"

	"auction-sniper/internal/domain"

	"github.com/go-redis/redis/v8"
)

const EventsChannel = "multisnipe_events"

var _ domain.EventPublisher = (*RedisEventPublisher)(nil)

type RedisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (r *RedisEventPublisher) PublishGroupEvent(ctx context.Context, event *domain.GroupEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, EventsChannel, data).Err()
}
