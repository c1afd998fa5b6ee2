package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/currency"
	"auction-sniper/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRecordCache(t *testing.T) {
	client, mr := newClient(t)
	cache := NewRedisRecordCache(client, time.Minute)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, miss)

	rec := &domain.Record{ID: 3, Color: "a0b0c0", DefaultBid: "USD 9.99", SubtractShipping: true, Identifier: "42"}
	require.NoError(t, cache.Set(ctx, rec))
	assert.Equal(t, time.Minute, mr.TTL("multisnipe:42"))

	got, err := cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, cache.Invalidate(ctx, "42"))
	got, err = cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, got)
}

type memRepo struct {
	records map[int64]*domain.Record
	lookups int
	nextID  int64
}

func newMemRepo() *memRepo { return &memRepo{records: map[int64]*domain.Record{}} }

func (m *memRepo) Save(_ context.Context, rec *domain.Record) error {
	if rec.ID == 0 {
		m.nextID++
		rec.ID = m.nextID
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRepo) Find(_ context.Context, id int64) (*domain.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRepo) FindFirstBy(_ context.Context, key, value string) (*domain.Record, error) {
	m.lookups++
	for _, rec := range m.records {
		if key == "identifier" && rec.Identifier == value {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) List(context.Context) ([]*domain.Record, error) { return nil, nil }

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func TestCachedRepository(t *testing.T) {
	client, _ := newClient(t)
	backing := newMemRepo()
	repo := NewCachedRepository(backing, NewRedisRecordCache(client, time.Minute), logger.NewNop())
	ctx := context.Background()

	rec := &domain.Record{Color: "010101", DefaultBid: "USD 1.00", Identifier: "77"}
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.FindFirstBy(ctx, "identifier", "77")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 1, backing.lookups)

	got, err = repo.FindFirstBy(ctx, "identifier", "77")
	require.NoError(t, err)
	assert.Equal(t, "010101", got.Color)
	assert.Equal(t, 1, backing.lookups, "second lookup is served from redis")

	rec.Color = "020202"
	require.NoError(t, repo.Save(ctx, rec))
	got, err = repo.FindFirstBy(ctx, "identifier", "77")
	require.NoError(t, err)
	assert.Equal(t, "020202", got.Color)
	assert.Equal(t, 2, backing.lookups)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err = repo.FindFirstBy(ctx, "identifier", "77")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCachedRepositorySurvivesRedisOutage(t *testing.T) {
	client, mr := newClient(t)
	backing := newMemRepo()
	repo := NewCachedRepository(backing, NewRedisRecordCache(client, 0), logger.NewNop())
	ctx := context.Background()

	rec := &domain.Record{Color: "010101", DefaultBid: "USD 1.00", Identifier: "5"}
	require.NoError(t, backing.Save(ctx, rec))

	mr.Close()

	got, err := repo.FindFirstBy(ctx, "identifier", "5")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestPublishAndSubscribe(t *testing.T) {
	client, _ := newClient(t)
	pub := NewRedisEventPublisher(client)
	sub := NewRedisEventSubscriber(client, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *domain.GroupEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- sub.SubscribeToGroupEvents(ctx, func(e *domain.GroupEvent) error {
			received <- e
			return nil
		})
	}()

	want := &domain.GroupEvent{Type: domain.GroupWon, Identifier: 1700000000000, Timestamp: time.Unix(1700000000, 0).UTC()}
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, EventsChannel).Result()
		return err == nil && n[EventsChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, pub.PublishGroupEvent(ctx, want))

	select {
	case got := <-received:
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Identifier, got.Identifier)
		assert.True(t, want.Timestamp.Equal(got.Timestamp))
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestBidQueue(t *testing.T) {
	client, _ := newClient(t)
	q := NewRedisBidQueue(client)
	ctx := context.Background()

	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := domain.NewSnipeEntry("9001", "Vintage lens", end, 5*time.Second, currency.Amount{})
	require.NoError(t, q.PlaceSnipe(ctx, e, currency.MustParse("USD 42.00")))

	raw, err := client.LPop(ctx, BidQueueKey).Result()
	require.NoError(t, err)

	var req BidRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	assert.Equal(t, "9001", req.EntryID)
	assert.Equal(t, "USD 42.00", req.Amount)
	assert.True(t, end.Equal(req.EndTime))
}
