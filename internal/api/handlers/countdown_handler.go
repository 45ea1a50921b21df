package handlers

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"auction-platform/internal/infrastructure/websocket"
	"auction-platform/pkg/logger"
	"auction-platform/pkg/utils"
)

// CountdownHandler upgrades clients onto the countdown stream. Each tick of
// the window scheduler is broadcast to every connection by the hub.
type CountdownHandler struct {
	hub      *websocket.CountdownHub
	upgrader gorilla.Upgrader
	log      logger.Logger
}

func NewCountdownHandler(hub *websocket.CountdownHub, log logger.Logger) *CountdownHandler {
	return &CountdownHandler{
		hub: hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

func (h *CountdownHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade countdown connection", "error", err)
		return err
	}

	id := utils.GenerateID("conn")
	h.hub.Register(id, conn)

	// The read loop exists only to observe the close; ticks flow one way.
	go func() {
		defer h.hub.Unregister(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
