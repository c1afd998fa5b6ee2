package domain

import (
	"context"

	"auction-sniper/pkg/currency"
)

// Bidder places the actual bid for a snipe.
type Bidder interface {
	PlaceSnipe(ctx context.Context, entry AuctionEntry, amount currency.Amount) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// Scheduler interface
type SnipeScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// Notification interfaces
type GroupBroadcaster interface {
	BroadcastToGroup(ctx context.Context, identifier int64, message interface{}) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ConnID() string
	GroupIdentifier() int64
}

type ConnectionManager interface {
	RegisterConnection(connID string, identifier int64, conn WebSocketConnection) error
	UnregisterConnection(connID string, identifier int64) error
	GetConnectionsForGroup(identifier int64) []WebSocketConnection
	BroadcastToGroup(identifier int64, message interface{}) error
	CloseAndUnregisterConnections(identifier int64) error
}
