package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

// CountdownHub fans each window-state tick out to every connected client.
// Clients whose writes fail are closed and dropped.
type CountdownHub struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn // connection id -> conn
	log   logger.Logger
}

func NewCountdownHub(log logger.Logger) *CountdownHub {
	return &CountdownHub{
		conns: make(map[string]*websocket.Conn),
		log:   log,
	}
}

func (h *CountdownHub) Register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[id]; ok {
		old.Close()
	}
	h.conns[id] = conn
	h.log.Debug("Countdown client connected", "conn_id", id, "total", len(h.conns))
}

func (h *CountdownHub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.conns[id]; ok {
		conn.Close()
		delete(h.conns, id)
		h.log.Debug("Countdown client disconnected", "conn_id", id, "total", len(h.conns))
	}
}

// Broadcast sends the state to every client. Intended as the Countdown's tick
// callback.
func (h *CountdownHub) Broadcast(state domain.WindowState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.conns {
		if err := conn.WriteJSON(state); err != nil {
			h.log.Warn("Dropping countdown client", "conn_id", id, "error", err)
			conn.Close()
			delete(h.conns, id)
		}
	}
}

// Close drops every client, typically during shutdown.
func (h *CountdownHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.conns {
		conn.Close()
		delete(h.conns, id)
	}
}

// Count reports the number of connected clients.
func (h *CountdownHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
