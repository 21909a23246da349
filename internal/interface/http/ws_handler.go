package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/maritime-esg/esg-analytics/internal/domain/tracking"
	"github.com/maritime-esg/esg-analytics/internal/interface/ws"
)

// WSHandler upgrades subscribers into the live tracking hub.
type WSHandler struct {
	hub      *ws.Hub
	tracking *tracking.Service
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler constructs the websocket handler.
func NewWSHandler(hub *ws.Hub, trackingSvc *tracking.Service, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		tracking: trackingSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Same open policy as the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "http.ws"),
	}
}

// Live upgrades the connection, attaches it to the hub and lazily starts the
// tracking loop.
func (h *WSHandler) Live(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, h.logger)
	client.OnMessage = h.tracking.HandleControl
	h.hub.Register(client)

	h.tracking.EnsureStarted()

	go client.WritePump()
	go client.ReadPump()
}
