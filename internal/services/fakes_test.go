package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/currency"
)

type memRepo struct {
	mu      sync.Mutex
	records map[int64]*domain.Record
	nextID  int64
}

func newMemRepo() *memRepo { return &memRepo{records: map[int64]*domain.Record{}} }

func (m *memRepo) Save(_ context.Context, rec *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == 0 {
		m.nextID++
		rec.ID = m.nextID
	} else if old, ok := m.records[rec.ID]; ok {
		rec.Identifier = old.Identifier
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRepo) Find(_ context.Context, id int64) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRepo) FindFirstBy(_ context.Context, key, value string) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.Record
	for _, rec := range m.records {
		var v string
		switch key {
		case "identifier":
			v = rec.Identifier
		case "color":
			v = rec.Color
		default:
			return nil, domain.ErrUnknownField
		}
		if v == value && (best == nil || rec.ID < best.ID) {
			best = rec
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memRepo) List(context.Context) ([]*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Record
	for _, rec := range m.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.GroupEvent
}

func (p *recordingPublisher) PublishGroupEvent(_ context.Context, e *domain.GroupEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []domain.GroupEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.GroupEventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type placedBid struct {
	entryID string
	amount  string
}

type recordingBidder struct {
	bids []placedBid
	fail error
}

func (b *recordingBidder) PlaceSnipe(_ context.Context, e domain.AuctionEntry, amount currency.Amount) error {
	if b.fail != nil {
		return b.fail
	}
	b.bids = append(b.bids, placedBid{entryID: e.Identifier(), amount: amount.String()})
	return nil
}

type staticLeader struct {
	leader bool
	err    error
}

func (l staticLeader) BecomeLeader(context.Context, string) (bool, error) { return l.leader, l.err }
func (l staticLeader) IsLeader(context.Context, string) (bool, error)     { return l.leader, l.err }
func (l staticLeader) ReleaseLeadership(context.Context, string) error    { return nil }

type counterIDs struct{ next int64 }

func (c *counterIDs) NextID() int64 {
	c.next++
	return c.next
}

var errBidderDown = errors.New("bidder down")

var base = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
