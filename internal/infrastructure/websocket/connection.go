package websocket

import (
	"sync"

	"auction-sniper/pkg/logger"

	"github.com/gorilla/websocket"
)

// WebSocketConnection wraps a gorilla connection watching one group.
// Writes are serialised; gorilla allows only one concurrent writer.
type WebSocketConnection struct {
	conn       *websocket.Conn
	connID     string
	identifier int64
	log        logger.Logger

	writeMu sync.Mutex
}

func NewWebSocketConnection(conn *websocket.Conn, connID string, identifier int64, log logger.Logger) *WebSocketConnection {
	return &WebSocketConnection{
		conn:       conn,
		connID:     connID,
		identifier: identifier,
		log:        log,
	}
}

func (wsc *WebSocketConnection) Send(message interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) Close() error {
	return wsc.conn.Close()
}

// ReadLoop discards client frames until the peer goes away.
func (wsc *WebSocketConnection) ReadLoop() error {
	for {
		if _, _, err := wsc.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func (wsc *WebSocketConnection) ConnID() string {
	return wsc.connID
}

func (wsc *WebSocketConnection) GroupIdentifier() int64 {
	return wsc.identifier
}
