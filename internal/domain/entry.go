package domain

import (
	"sync"
	"time"

	"auction-sniper/pkg/currency"
)

// AuctionEntry is the part of an auction entry a multi-snipe group needs.
// Two entries are the same entry when their identifiers match.
type AuctionEntry interface {
	Identifier() string
	Title() string
	EndTime() time.Time
	SnipeLeadTime() time.Duration
	// ShippingWithInsurance reports false when the cost is not known.
	ShippingWithInsurance() (currency.Amount, bool)
	CancelSnipe(afterEnd bool)
}

func sameEntry(a, b AuctionEntry) bool {
	return a.Identifier() == b.Identifier()
}

// SnipeEntry is the in-process AuctionEntry that the group manager attaches
// to groups. It knows which group it belongs to so cancelling its snipe
// takes it back out of that group.
type SnipeEntry struct {
	id       string
	title    string
	endTime  time.Time
	leadTime time.Duration
	shipping currency.Amount

	mu        sync.Mutex
	group     *MultiSnipe
	fired     bool
	cancelled bool
	ended     bool
}

func NewSnipeEntry(id, title string, endTime time.Time, leadTime time.Duration, shipping currency.Amount) *SnipeEntry {
	return &SnipeEntry{
		id:       id,
		title:    title,
		endTime:  endTime,
		leadTime: leadTime,
		shipping: shipping,
	}
}

func (e *SnipeEntry) Identifier() string           { return e.id }
func (e *SnipeEntry) Title() string                { return e.title }
func (e *SnipeEntry) EndTime() time.Time           { return e.endTime }
func (e *SnipeEntry) SnipeLeadTime() time.Duration { return e.leadTime }

func (e *SnipeEntry) ShippingWithInsurance() (currency.Amount, bool) {
	if e.shipping.IsNull() {
		return currency.Amount{}, false
	}
	return e.shipping, true
}

// FireTime is the instant the snipe is due.
func (e *SnipeEntry) FireTime() time.Time {
	return e.endTime.Add(-e.leadTime)
}

func (e *SnipeEntry) AttachTo(g *MultiSnipe) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.group = g
	e.cancelled = false
}

func (e *SnipeEntry) Group() *MultiSnipe {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.group
}

// CancelSnipe drops the pending snipe and leaves the group. afterEnd marks
// the cancellation as happening once the auction has closed.
func (e *SnipeEntry) CancelSnipe(afterEnd bool) {
	e.mu.Lock()
	g := e.group
	e.group = nil
	e.cancelled = true
	e.ended = e.ended || afterEnd
	e.mu.Unlock()

	// The group lock must not be taken while e.mu is held.
	if g != nil {
		g.Remove(e)
	}
}

func (e *SnipeEntry) MarkFired() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fired = true
}

func (e *SnipeEntry) Fired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fired
}

func (e *SnipeEntry) Cancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

func (e *SnipeEntry) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}
