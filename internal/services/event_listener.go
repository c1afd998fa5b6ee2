package services

import (
	"context"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/logger"
)

// EventListener relays group events from the bus to websocket watchers.
type EventListener struct {
	broadcaster       domain.GroupBroadcaster
	connectionManager domain.ConnectionManager
	log               logger.Logger
}

func NewEventListener(broadcaster domain.GroupBroadcaster, connectionManager domain.ConnectionManager, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster:       broadcaster,
		connectionManager: connectionManager,
		log:               log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToGroupEvents(ctx, el.handleGroupEvent)
}

func (el *EventListener) handleGroupEvent(event *domain.GroupEvent) error {
	el.log.Debug("Handling group event", "type", event.Type, "identifier", event.Identifier)

	switch event.Type {
	case domain.GroupDeleted:
		return el.handleGroupDeleted(event)
	default:
		return el.broadcaster.BroadcastToGroup(context.Background(), event.Identifier, event)
	}
}

// handleGroupDeleted sends the final event and then hangs up on every
// watcher of the group.
func (el *EventListener) handleGroupDeleted(event *domain.GroupEvent) error {
	if err := el.broadcaster.BroadcastToGroup(context.Background(), event.Identifier, event); err != nil {
		el.log.Error("Failed to broadcast group deleted event", "error", err)
		return err
	}

	if err := el.connectionManager.CloseAndUnregisterConnections(event.Identifier); err != nil {
		el.log.Error("Failed to finalize connections for multisnipe", "identifier", event.Identifier, "error", err)
		return err
	}
	return nil
}
