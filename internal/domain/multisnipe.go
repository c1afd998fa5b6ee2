package domain

import (
	"fmt"
	"strconv"
	"sync"

	"auction-sniper/pkg/color"
	"auction-sniper/pkg/currency"
	"auction-sniper/pkg/logger"
)

// MultiSnipe is a coloured group of auction entries bidding one shared
// value. Only one member of a group is expected to be won; winning any of
// them cancels the rest.
//
// Members are held by reference and are not owned by the group. The mutex
// is never held while calling into a member's CancelSnipe.
type MultiSnipe struct {
	mu sync.Mutex

	id               int64
	identifier       int64
	colorHex         string
	rgb              *color.RGB
	defaultBid       currency.Amount
	subtractShipping bool
	members          []AuctionEntry

	log logger.Logger
}

// NewMultiSnipe creates a fresh group whose identifier comes from ids.
func NewMultiSnipe(c color.RGB, bid currency.Amount, subtractShipping bool, ids IDSource) *MultiSnipe {
	rgb := c
	return &MultiSnipe{
		identifier:       ids.NextID(),
		colorHex:         color.Encode(c),
		rgb:              &rgb,
		defaultBid:       bid,
		subtractShipping: subtractShipping,
		log:              logger.NewNop(),
	}
}

func NewMultiSnipeFromString(colorHex string, bid currency.Amount, identifier int64, subtractShipping bool) (*MultiSnipe, error) {
	rgb, err := color.Decode(colorHex)
	if err != nil {
		return nil, err
	}
	return &MultiSnipe{
		identifier:       identifier,
		colorHex:         color.Encode(rgb),
		rgb:              &rgb,
		defaultBid:       bid,
		subtractShipping: subtractShipping,
		log:              logger.NewNop(),
	}, nil
}

// FromRecord rehydrates a stored group. Membership starts out empty. The
// colour is kept in its canonical six-digit form and decoded again on the
// first call to Color.
func FromRecord(rec *Record) (*MultiSnipe, error) {
	rgb, err := color.Decode(rec.Color)
	if err != nil {
		return nil, fmt.Errorf("multisnipe %d: %w", rec.ID, err)
	}
	bid, err := currency.Parse(rec.DefaultBid)
	if err != nil {
		return nil, fmt.Errorf("multisnipe %d: %w", rec.ID, err)
	}

	identifier, err := strconv.ParseInt(rec.Identifier, 10, 64)
	if err != nil {
		identifier = 0
	}

	return &MultiSnipe{
		id:               rec.ID,
		identifier:       identifier,
		colorHex:         color.Encode(rgb),
		defaultBid:       bid,
		subtractShipping: rec.SubtractShipping,
		log:              logger.NewNop(),
	}, nil
}

func (m *MultiSnipe) SetLogger(log logger.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log
}

// Record returns the persisted field set.
func (m *MultiSnipe) Record() *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Record{
		ID:               m.id,
		Color:            m.colorHex,
		DefaultBid:       m.defaultBid.String(),
		SubtractShipping: m.subtractShipping,
		Identifier:       strconv.FormatInt(m.identifier, 10),
	}
}

// SetID stores the surrogate row id assigned by the repository.
func (m *MultiSnipe) SetID(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
}

func (m *MultiSnipe) ID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *MultiSnipe) Identifier() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identifier
}

// Color decodes the stored colour string on first use and caches it.
func (m *MultiSnipe) Color() (color.RGB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rgb == nil {
		rgb, err := color.Decode(m.colorHex)
		if err != nil {
			return color.RGB{}, err
		}
		m.rgb = &rgb
	}
	return *m.rgb, nil
}

func (m *MultiSnipe) ColorString() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.colorHex
}

func (m *MultiSnipe) SetColor(c color.RGB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.colorHex = color.Encode(c)
	m.rgb = &c
}

func (m *MultiSnipe) DefaultBid() currency.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultBid
}

func (m *MultiSnipe) SetDefaultBid(bid currency.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultBid = bid
}

func (m *MultiSnipe) SubtractShipping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subtractShipping
}

func (m *MultiSnipe) SetSubtractShipping(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subtractShipping = v
}

// SnipeValue is the bid to place for ae. With subtract-shipping on, a known
// non-zero shipping cost is taken off the shared bid; if the currencies do
// not match the shared bid is used as is.
func (m *MultiSnipe) SnipeValue(ae AuctionEntry) currency.Amount {
	m.mu.Lock()
	bid, subtract := m.defaultBid, m.subtractShipping
	m.mu.Unlock()

	if ae != nil && subtract {
		shipping, ok := ae.ShippingWithInsurance()
		if ok && !shipping.IsNull() && !shipping.IsZero() {
			if v, err := bid.Subtract(shipping); err == nil {
				return v
			}
		}
	}
	return bid
}

// Members returns a copy of the current membership.
func (m *MultiSnipe) Members() []AuctionEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuctionEntry, len(m.members))
	copy(out, m.members)
	return out
}

func (m *MultiSnipe) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

func (m *MultiSnipe) Contains(ae AuctionEntry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(ae) >= 0
}

func (m *MultiSnipe) indexOf(ae AuctionEntry) int {
	for i, member := range m.members {
		if sameEntry(member, ae) {
			return i
		}
	}
	return -1
}

// Add appends ae. It does not check IsSafeToAdd; callers that need the
// timing guarantee use TryAdd. Adding a current member is a no-op.
func (m *MultiSnipe) Add(ae AuctionEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(ae) >= 0 {
		return
	}
	m.members = append(m.members, ae)
}

// TryAdd adds ae only if it is safe to group with every current member.
func (m *MultiSnipe) TryAdd(ae AuctionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(ae) >= 0 {
		return nil
	}
	if conflict := m.conflictWith(ae); conflict != nil {
		return fmt.Errorf("%w: %s conflicts with %s", ErrUnsafeSnipe, ae.Identifier(), conflict.Identifier())
	}
	m.members = append(m.members, ae)
	return nil
}

// Remove drops the first member matching ae.
func (m *MultiSnipe) Remove(ae AuctionEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(ae)
	if i < 0 {
		return
	}
	m.members = append(m.members[:i:i], m.members[i+1:]...)
}

// IsSafeToAdd reports whether ae may join. A current member is always safe.
func (m *MultiSnipe) IsSafeToAdd(ae AuctionEntry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflictWith(ae) == nil
}

func (m *MultiSnipe) conflictWith(ae AuctionEntry) AuctionEntry {
	for _, member := range m.members {
		if sameEntry(member, ae) {
			continue
		}
		if !IsSafePair(member, ae) {
			return member
		}
	}
	return nil
}

// AnyEarlier reports whether a member ends strictly before firing does.
// The scheduler holds firing's snipe back until those members are gone.
func (m *MultiSnipe) AnyEarlier(firing AuctionEntry) bool {
	end := firing.EndTime()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range m.members {
		if member.EndTime().Before(end) {
			return true
		}
	}
	return false
}

// SetWonAuction cancels the snipes of every member. The live list is
// replaced before any member is cancelled, because cancelling calls back
// into Remove on this group. Returns the number of members cancelled.
func (m *MultiSnipe) SetWonAuction() int {
	m.mu.Lock()
	snapshot := m.members
	m.members = nil
	log := m.log
	m.mu.Unlock()

	for _, ae := range snapshot {
		log.Debug("Cancelling snipe", "title", ae.Title(), "entry_id", ae.Identifier())
		ae.CancelSnipe(false)
	}
	return len(snapshot)
}
