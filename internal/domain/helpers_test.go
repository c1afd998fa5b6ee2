package domain

import (
	"time"

	"auction-sniper/pkg/currency"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return epoch.Add(time.Duration(seconds) * time.Second)
}

type fakeEntry struct {
	id       string
	end      time.Time
	lead     time.Duration
	shipping currency.Amount
	hasShip  bool

	group    *MultiSnipe
	cancels  int
	afterEnd []bool
}

func (f *fakeEntry) Identifier() string           { return f.id }
func (f *fakeEntry) Title() string                { return "item " + f.id }
func (f *fakeEntry) EndTime() time.Time           { return f.end }
func (f *fakeEntry) SnipeLeadTime() time.Duration { return f.lead }

func (f *fakeEntry) ShippingWithInsurance() (currency.Amount, bool) {
	return f.shipping, f.hasShip
}

func (f *fakeEntry) CancelSnipe(afterEnd bool) {
	f.cancels++
	f.afterEnd = append(f.afterEnd, afterEnd)
	if f.group != nil {
		f.group.Remove(f)
	}
}

func entry(id string, endSec, leadSec int) *fakeEntry {
	return &fakeEntry{id: id, end: at(endSec), lead: time.Duration(leadSec) * time.Second}
}

type fixedIDs struct{ next int64 }

func (f *fixedIDs) NextID() int64 {
	f.next++
	return f.next
}
