package leader

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-sniper/internal/domain"

	"github.com/go-redis/redis/v8"
)

const leaderKey = "multisnipe_scheduler_leader"

var _ domain.LeaderElection = (*RedisLeaderElection)(nil)

const releaseScript = `
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("DEL", KEYS[1])
    else
        return 0
    end
`

const refreshScript = `
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("PEXPIRE", KEYS[1], ARGV[2])
    else
        return 0
    end
`

// RedisLeaderElection holds a SETNX lease so that only one instance fires
// snipes. The holder refreshes the lease at a third of its TTL.
type RedisLeaderElection struct {
	client *redis.Client
	ttl    time.Duration

	mu        sync.Mutex
	heartbeat context.CancelFunc
}

func NewRedisLeaderElection(client *redis.Client, ttl time.Duration) *RedisLeaderElection {
	return &RedisLeaderElection{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	result, err := r.client.SetNX(ctx, leaderKey, instanceID, r.ttl).Result()
	if err != nil {
		return false, err
	}

	if result {
		r.mu.Lock()
		if r.heartbeat != nil {
			r.heartbeat()
		}
		hbCtx, cancel := context.WithCancel(context.Background())
		r.heartbeat = cancel
		r.mu.Unlock()

		go r.maintainLeadership(hbCtx, instanceID)
	}

	return result, nil
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	currentLeader, err := r.client.Get(ctx, leaderKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	return currentLeader == instanceID, nil
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	if r.heartbeat != nil {
		r.heartbeat()
		r.heartbeat = nil
	}
	r.mu.Unlock()

	return r.client.Eval(ctx, releaseScript, []string{leaderKey}, instanceID).Err()
}

func (r *RedisLeaderElection) maintainLeadership(ctx context.Context, instanceID string) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		result, err := r.client.Eval(callCtx, refreshScript, []string{leaderKey},
			instanceID, r.ttl.Milliseconds()).Int64()
		cancel()

		if err != nil || result == 0 {
			// Lost leadership, stop heartbeat
			return
		}
	}
}
