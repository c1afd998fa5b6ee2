package services

import (
	"context"
	"sync"
	"time"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/logger"

	"github.com/robfig/cron/v3"
)

// schedulable is an entry the scheduler can fire.
type schedulable interface {
	domain.AuctionEntry
	FireTime() time.Time
	Fired() bool
	MarkFired()
}

var _ domain.SnipeScheduler = (*CronSnipeScheduler)(nil)

// CronSnipeScheduler checks every group on each tick and fires the snipes
// that are due. Only the elected leader fires.
type CronSnipeScheduler struct {
	cron       *cron.Cron
	spec       string
	groups     *GroupManager
	bidder     domain.Bidder
	leader     domain.LeaderElection
	eventPub   domain.EventPublisher
	instanceID string
	log        logger.Logger
	now        func() time.Time

	tickMu sync.Mutex
}

func NewCronSnipeScheduler(spec string, groups *GroupManager, bidder domain.Bidder,
	leader domain.LeaderElection, eventPub domain.EventPublisher, instanceID string,
	log logger.Logger) *CronSnipeScheduler {
	return &CronSnipeScheduler{
		cron:       cron.New(cron.WithSeconds()),
		spec:       spec,
		groups:     groups,
		bidder:     bidder,
		leader:     leader,
		eventPub:   eventPub,
		instanceID: instanceID,
		log:        log,
		now:        time.Now,
	}
}

func (s *CronSnipeScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting snipe scheduler", "spec", s.spec)

	_, err := s.cron.AddFunc(s.spec, func() {
		s.ProcessDueSnipes(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronSnipeScheduler) Stop() error {
	s.log.Info("Stopping snipe scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// ProcessDueSnipes runs one scheduling pass and returns how many snipes
// were fired.
func (s *CronSnipeScheduler) ProcessDueSnipes(ctx context.Context) int {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.leader != nil {
		isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
		if err != nil {
			s.log.Error("Failed to check leadership", "error", err)
			return 0
		}
		if !isLeader {
			return 0
		}
	}

	now := s.now()
	fired := 0
	for _, group := range s.groups.Groups() {
		for _, member := range group.Members() {
			entry, ok := member.(schedulable)
			if !ok || entry.Fired() || now.Before(entry.FireTime()) {
				continue
			}
			if s.fire(ctx, group, entry, now) {
				fired++
			}
		}
	}
	return fired
}

func (s *CronSnipeScheduler) fire(ctx context.Context, group *domain.MultiSnipe, entry schedulable, now time.Time) bool {
	identifier := group.Identifier()

	if !now.Before(entry.EndTime()) {
		s.log.Warn("Snipe missed, auction already closed", "identifier", identifier, "entry_id", entry.Identifier())
		entry.CancelSnipe(true)
		group.Remove(entry)
		s.publish(ctx, &domain.GroupEvent{Type: domain.MemberRemoved, Identifier: identifier, EntryID: entry.Identifier()})
		return false
	}

	if group.AnyEarlier(entry) {
		s.log.Debug("Deferring snipe until earlier auctions clear", "identifier", identifier, "entry_id", entry.Identifier())
		s.publish(ctx, &domain.GroupEvent{Type: domain.SnipeDeferred, Identifier: identifier, EntryID: entry.Identifier()})
		return false
	}

	amount := group.SnipeValue(entry)
	if err := s.bidder.PlaceSnipe(ctx, entry, amount); err != nil {
		// Not marked as fired; the next tick retries until the auction closes.
		s.log.Error("Failed to place snipe", "identifier", identifier, "entry_id", entry.Identifier(), "error", err)
		return false
	}
	entry.MarkFired()

	s.log.Info("Snipe fired", "identifier", identifier, "entry_id", entry.Identifier(), "title", entry.Title(), "amount", amount.String())
	s.publish(ctx, &domain.GroupEvent{
		Type:       domain.SnipeFired,
		Identifier: identifier,
		EntryID:    entry.Identifier(),
		Amount:     amount.String(),
	})
	return true
}

func (s *CronSnipeScheduler) publish(ctx context.Context, event *domain.GroupEvent) {
	if s.eventPub == nil {
		return
	}
	event.Timestamp = s.now()
	if err := s.eventPub.PublishGroupEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish group event", "type", event.Type, "identifier", event.Identifier, "error", err)
	}
}
