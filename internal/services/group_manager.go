package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/color"
	"auction-sniper/pkg/currency"
	"auction-sniper/pkg/logger"
)

// GroupManager owns the live multisnipe groups of this instance and keeps
// them in step with the record store.
type GroupManager struct {
	repo     domain.MultiSnipeRepository
	eventPub domain.EventPublisher
	ids      domain.IDSource
	log      logger.Logger

	mu     sync.RWMutex
	groups map[int64]*domain.MultiSnipe

	// joinMu serialises Join so an entry id lands in at most one group.
	joinMu sync.Mutex
}

func NewGroupManager(repo domain.MultiSnipeRepository, eventPub domain.EventPublisher,
	ids domain.IDSource, log logger.Logger) *GroupManager {
	return &GroupManager{
		repo:     repo,
		eventPub: eventPub,
		ids:      ids,
		log:      log,
		groups:   make(map[int64]*domain.MultiSnipe),
	}
}

func (gm *GroupManager) CreateGroup(ctx context.Context, rgb color.RGB, bid currency.Amount, subtractShipping bool) (*domain.MultiSnipe, error) {
	group := domain.NewMultiSnipe(rgb, bid, subtractShipping, gm.ids)
	group.SetLogger(gm.log)

	rec := group.Record()
	if err := gm.repo.Save(ctx, rec); err != nil {
		return nil, err
	}
	group.SetID(rec.ID)

	gm.mu.Lock()
	gm.groups[group.Identifier()] = group
	gm.mu.Unlock()

	gm.log.Info("Multisnipe created", "identifier", group.Identifier(), "color", rec.Color, "default_bid", rec.DefaultBid)
	return group, nil
}

// LoadGroups rehydrates every stored group. Members are not restored; they
// are re-attached by whoever owns the entries.
func (gm *GroupManager) LoadGroups(ctx context.Context) (int, error) {
	records, err := gm.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, rec := range records {
		group, err := domain.FromRecord(rec)
		if err != nil {
			gm.log.Error("Skipping unreadable multisnipe", "id", rec.ID, "error", err)
			continue
		}
		group.SetLogger(gm.log)

		gm.mu.Lock()
		if _, exists := gm.groups[group.Identifier()]; !exists {
			gm.groups[group.Identifier()] = group
			loaded++
		}
		gm.mu.Unlock()
	}

	gm.log.Info("Multisnipes loaded", "count", loaded)
	return loaded, nil
}

// Group returns a live group, loading it from the store on a miss.
func (gm *GroupManager) Group(ctx context.Context, identifier int64) (*domain.MultiSnipe, error) {
	gm.mu.RLock()
	group, ok := gm.groups[identifier]
	gm.mu.RUnlock()
	if ok {
		return group, nil
	}

	rec, err := gm.repo.FindFirstBy(ctx, "identifier", strconv.FormatInt(identifier, 10))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrGroupNotFound, identifier)
		}
		return nil, err
	}
	group, err = domain.FromRecord(rec)
	if err != nil {
		return nil, err
	}
	group.SetLogger(gm.log)

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if existing, ok := gm.groups[identifier]; ok {
		return existing, nil
	}
	gm.groups[identifier] = group
	return group, nil
}

// Groups returns the live groups ordered by identifier.
func (gm *GroupManager) Groups() []*domain.MultiSnipe {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	groups := make([]*domain.MultiSnipe, 0, len(gm.groups))
	for _, g := range gm.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Identifier() < groups[j].Identifier() })
	return groups
}

// Join puts entry into the group if its timing is compatible with every
// current member.
func (gm *GroupManager) Join(ctx context.Context, identifier int64, entry *domain.SnipeEntry) error {
	group, err := gm.Group(ctx, identifier)
	if err != nil {
		return err
	}

	gm.joinMu.Lock()
	defer gm.joinMu.Unlock()

	if holder := gm.holderOf(entry); holder != nil && holder != group {
		return fmt.Errorf("%w: %s is in multisnipe %d", domain.ErrEntryInGroup, entry.Identifier(), holder.Identifier())
	}

	if group.Contains(entry) {
		return nil
	}
	if err := group.TryAdd(entry); err != nil {
		gm.log.Warn("Rejected multisnipe member", "identifier", identifier, "entry_id", entry.Identifier(), "error", err)
		return err
	}
	entry.AttachTo(group)

	gm.publish(ctx, &domain.GroupEvent{
		Type:       domain.MemberAdded,
		Identifier: identifier,
		EntryID:    entry.Identifier(),
		Amount:     group.SnipeValue(entry).String(),
	})
	return nil
}

// Member returns the group's current member with the given entry id.
func (gm *GroupManager) Member(ctx context.Context, identifier int64, entryID string) (domain.AuctionEntry, error) {
	group, err := gm.Group(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if member := findMember(group, entryID); member != nil {
		return member, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, entryID)
}

// Leave cancels the entry's snipe, which takes it out of the group.
func (gm *GroupManager) Leave(ctx context.Context, identifier int64, entryID string) error {
	group, err := gm.Group(ctx, identifier)
	if err != nil {
		return err
	}

	entry := findMember(group, entryID)
	if entry == nil {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, entryID)
	}
	entry.CancelSnipe(false)
	// Entries that do not track their group still have to go.
	group.Remove(entry)

	gm.publish(ctx, &domain.GroupEvent{Type: domain.MemberRemoved, Identifier: identifier, EntryID: entryID})
	return nil
}

// MarkWon records that one of the group's auctions was won and cancels the
// snipes of every remaining member.
func (gm *GroupManager) MarkWon(ctx context.Context, identifier int64) (int, error) {
	group, err := gm.Group(ctx, identifier)
	if err != nil {
		return 0, err
	}

	cancelled := group.SetWonAuction()
	gm.log.Info("Multisnipe won", "identifier", identifier, "cancelled", cancelled)

	gm.publish(ctx, &domain.GroupEvent{Type: domain.GroupWon, Identifier: identifier})
	return cancelled, nil
}

// GroupUpdate carries the settings to change; nil fields are left alone.
type GroupUpdate struct {
	Color            *color.RGB
	DefaultBid       *currency.Amount
	SubtractShipping *bool
}

// UpdateGroup changes a group's settings and saves them. The stored
// identifier is never rewritten.
func (gm *GroupManager) UpdateGroup(ctx context.Context, identifier int64, upd GroupUpdate) (*domain.MultiSnipe, error) {
	group, err := gm.Group(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if upd.Color != nil {
		group.SetColor(*upd.Color)
	}
	if upd.DefaultBid != nil {
		group.SetDefaultBid(*upd.DefaultBid)
	}
	if upd.SubtractShipping != nil {
		group.SetSubtractShipping(*upd.SubtractShipping)
	}

	rec := group.Record()
	if err := gm.repo.Save(ctx, rec); err != nil {
		return nil, err
	}

	gm.log.Info("Multisnipe updated", "identifier", identifier, "color", rec.Color, "default_bid", rec.DefaultBid)
	gm.publish(ctx, &domain.GroupEvent{Type: domain.GroupUpdated, Identifier: identifier})
	return group, nil
}

func (gm *GroupManager) DeleteGroup(ctx context.Context, identifier int64) error {
	group, err := gm.Group(ctx, identifier)
	if err != nil {
		return err
	}

	for _, member := range group.Members() {
		member.CancelSnipe(false)
	}
	if err := gm.repo.Delete(ctx, group.ID()); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	gm.mu.Lock()
	delete(gm.groups, identifier)
	gm.mu.Unlock()

	gm.publish(ctx, &domain.GroupEvent{Type: domain.GroupDeleted, Identifier: identifier})
	return nil
}

// FindByField is a pass-through to the record store.
func (gm *GroupManager) FindByField(ctx context.Context, key, value string) (*domain.Record, error) {
	return gm.repo.FindFirstBy(ctx, key, value)
}

// FindByRowID is a pass-through to the record store.
func (gm *GroupManager) FindByRowID(ctx context.Context, id int64) (*domain.Record, error) {
	return gm.repo.Find(ctx, id)
}

func (gm *GroupManager) publish(ctx context.Context, event *domain.GroupEvent) {
	if gm.eventPub == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := gm.eventPub.PublishGroupEvent(ctx, event); err != nil {
		gm.log.Error("Failed to publish group event", "type", event.Type, "identifier", event.Identifier, "error", err)
	}
}

// holderOf returns the live group that has entry as a member, if any.
func (gm *GroupManager) holderOf(entry domain.AuctionEntry) *domain.MultiSnipe {
	for _, g := range gm.Groups() {
		if g.Contains(entry) {
			return g
		}
	}
	return nil
}

func findMember(group *domain.MultiSnipe, entryID string) domain.AuctionEntry {
	for _, m := range group.Members() {
		if m.Identifier() == entryID {
			return m
		}
	}
	return nil
}
