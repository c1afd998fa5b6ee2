package websocket

import (
	"context"
	"fmt"
	"sync"

	"auction-sniper/internal/domain"
	"auction-sniper/pkg/logger"
)

var (
	_ domain.ConnectionManager = (*ConnectionManager)(nil)
	_ domain.GroupBroadcaster  = (*WebSocketNotifier)(nil)
)

type ConnectionManager struct {
	connections map[int64]map[string]domain.WebSocketConnection // identifier -> connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(connID string, identifier int64, conn domain.WebSocketConnection) error {
	if conn.GroupIdentifier() != identifier {
		return fmt.Errorf("connection %s watches multisnipe %d, not %d", connID, conn.GroupIdentifier(), identifier)
	}

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[identifier] == nil {
		cm.connections[identifier] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[identifier][connID] = conn

	cm.log.Info("Connection registered", "conn_id", connID, "identifier", identifier)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(connID string, identifier int64) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if groupConns, exists := cm.connections[identifier]; exists {
		delete(groupConns, connID)
		if len(groupConns) == 0 {
			delete(cm.connections, identifier)
		}
	}

	cm.log.Info("Connection unregistered", "conn_id", connID, "identifier", identifier)
	return nil
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(identifier int64) error {
	cm.mutex.Lock()
	groupConns := cm.connections[identifier]
	delete(cm.connections, identifier)
	cm.mutex.Unlock()

	for connID, conn := range groupConns {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "conn_id", connID,
				"identifier", identifier, "error", err)
		}
	}

	cm.log.Info("Connections closed for group", "identifier", identifier, "count", len(groupConns))
	return nil
}

func (cm *ConnectionManager) GetConnectionsForGroup(identifier int64) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[identifier] {
		connections = append(connections, conn)
	}
	return connections
}

// BroadcastToGroup sends message to every watcher of the group. A failed
// send is logged and does not stop the others.
func (cm *ConnectionManager) BroadcastToGroup(identifier int64, message interface{}) error {
	connections := cm.GetConnectionsForGroup(identifier)
	cm.log.Debug("Broadcasting to group", "identifier", identifier, "connections", len(connections))

	for _, conn := range connections {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send message", "conn_id", conn.ConnID(), "error", err)
		}
	}
	return nil
}

// WebSocketNotifier adapts the manager to domain.GroupBroadcaster.
type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) BroadcastToGroup(ctx context.Context, identifier int64, message interface{}) error {
	return n.connManager.BroadcastToGroup(identifier, message)
}
