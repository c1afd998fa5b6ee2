package domain

import (
	"context"
	"time"
)

type GroupEventType string

const (
	MemberAdded   GroupEventType = "member_added"
	MemberRemoved GroupEventType = "member_removed"
	GroupWon      GroupEventType = "group_won"
	GroupUpdated  GroupEventType = "group_updated"
	GroupDeleted  GroupEventType = "group_deleted"
	SnipeFired    GroupEventType = "snipe_fired"
	SnipeDeferred GroupEventType = "snipe_deferred"
)

type GroupEvent struct {
	Type       GroupEventType `json:"type"`
	Identifier int64          `json:"identifier"`
	EntryID    string         `json:"entry_id,omitempty"`
	Amount     string         `json:"amount,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type EventPublisher interface {
	PublishGroupEvent(ctx context.Context, event *GroupEvent) error
}

type EventSubscriber interface {
	SubscribeToGroupEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *GroupEvent) error
