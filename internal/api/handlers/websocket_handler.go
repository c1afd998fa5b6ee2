package handlers

import (
	"net/http"

	"auction-sniper/internal/domain"
	"auction-sniper/internal/infrastructure/websocket"
	"auction-sniper/internal/services"
	"auction-sniper/pkg/logger"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// WebSocketHandler streams a group's events to browser watchers.
type WebSocketHandler struct {
	groups      *services.GroupManager
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewWebSocketHandler(groups *services.GroupManager, connManager domain.ConnectionManager, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		groups:      groups,
		connManager: connManager,
		log:         log,
	}
}

func (h *WebSocketHandler) WatchGroup(c echo.Context) error {
	identifier, err := parseIdentifier(c)
	if err != nil {
		return err
	}

	if _, err := h.groups.Group(c.Request().Context(), identifier); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "multisnipe not found"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return nil
	}

	connID := uuid.NewString()
	wsConn := websocket.NewWebSocketConnection(conn, connID, identifier, h.log)
	if err := h.connManager.RegisterConnection(connID, identifier, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		conn.Close()
		return nil
	}

	go func() {
		defer func() {
			h.connManager.UnregisterConnection(connID, identifier)
			wsConn.Close()
		}()
		if err := wsConn.ReadLoop(); err != nil {
			h.log.Debug("Watcher disconnected", "conn_id", connID, "error", err)
		}
	}()
	return nil
}
