package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"auction-sniper/internal/domain"

	"github.com/go-redis/redis/v8"
)

var _ domain.RecordCache = (*RedisRecordCache)(nil)

// RedisRecordCache keeps multisnipe records in a hash per identifier.
type RedisRecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRecordCache(client *redis.Client, ttl time.Duration) *RedisRecordCache {
	return &RedisRecordCache{client: client, ttl: ttl}
}

func recordKey(identifier string) string {
	return fmt.Sprintf("multisnipe:%s", identifier)
}

func (c *RedisRecordCache) Get(ctx context.Context, identifier string) (*domain.Record, error) {
	result, err := c.client.HGetAll(ctx, recordKey(identifier)).Result()
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	id, err := strconv.ParseInt(result["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt cached multisnipe %s: %w", identifier, err)
	}
	subtract, _ := strconv.ParseBool(result["subtract_shipping"])

	return &domain.Record{
		ID:               id,
		Color:            result["color"],
		DefaultBid:       result["default_bid"],
		SubtractShipping: subtract,
		Identifier:       result["identifier"],
	}, nil
}

func (c *RedisRecordCache) Set(ctx context.Context, rec *domain.Record) error {
	key := recordKey(rec.Identifier)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key,
		"id", strconv.FormatInt(rec.ID, 10),
		"color", rec.Color,
		"default_bid", rec.DefaultBid,
		"subtract_shipping", strconv.FormatBool(rec.SubtractShipping),
		"identifier", rec.Identifier,
	)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisRecordCache) Invalidate(ctx context.Context, identifier string) error {
	return c.client.Del(ctx, recordKey(identifier)).Err()
}
