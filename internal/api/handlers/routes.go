package handlers

import "github.com/labstack/echo/v4"

func RegisterRoutes(e *echo.Echo, h *MultiSnipeHandler, ws *WebSocketHandler) {
	api := e.Group("/api/v1")
	api.POST("/multisnipes", h.CreateMultiSnipe)
	api.GET("/multisnipes", h.ListMultiSnipes)
	api.GET("/multisnipes/lookup", h.Lookup)
	api.GET("/multisnipes/:identifier", h.GetMultiSnipe)
	api.PATCH("/multisnipes/:identifier", h.UpdateMultiSnipe)
	api.DELETE("/multisnipes/:identifier", h.DeleteMultiSnipe)
	api.POST("/multisnipes/:identifier/entries", h.AddEntry)
	api.DELETE("/multisnipes/:identifier/entries/:entryID", h.RemoveEntry)
	api.POST("/multisnipes/:identifier/won", h.MarkWon)

	if ws != nil {
		e.GET("/ws/multisnipes/:identifier", ws.WatchGroup)
	}
}
