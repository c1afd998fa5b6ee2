package redis

import (
	"context"
	"encoding/json"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/currency"

	"github.com/go-redis/redis/v8"
)

const BidQueueKey = "snipe_bids"

var _ domain.Bidder = (*RedisBidQueue)(nil)

// BidRequest is what the bidding worker pops off the queue.
type BidRequest struct {
	EntryID  string    `json:"entry_id"`
	Title    string    `json:"title"`
	Amount   string    `json:"amount"`
	EndTime  time.Time `json:"end_time"`
	QueuedAt time.Time `json:"queued_at"`
}

// RedisBidQueue hands snipes to an out-of-process bidder through a list.
type RedisBidQueue struct {
	client *redis.Client
}

func NewRedisBidQueue(client *redis.Client) *RedisBidQueue {
	return &RedisBidQueue{client: client}
}

func (q *RedisBidQueue) PlaceSnipe(ctx context.Context, entry domain.AuctionEntry, amount currency.Amount) error {
	data, err := json.Marshal(&BidRequest{
		EntryID:  entry.Identifier(),
		Title:    entry.Title(),
		Amount:   amount.String(),
		EndTime:  entry.EndTime(),
		QueuedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, BidQueueKey, data).Err()
}
