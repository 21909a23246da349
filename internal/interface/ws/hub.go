package ws

import (
	"context"
	"log/slog"
	"sync"
)

// Hub tracks live subscribers and fans broadcast payloads out to them. A
// subscriber whose send buffer is full is dropped rather than allowed to slow
// the tick loop down.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	logger *slog.Logger
}

// NewHub constructs an empty hub. Run must be started before clients attach.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		logger:     logger.With("component", "ws.hub"),
	}
}

// Run owns the client set. Blocks until ctx is canceled; intended for a
// dedicated goroutine. On shutdown every subscriber's send channel is closed
// so its write pump terminates.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber connected", "client_id", client.ID, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber disconnected", "client_id", client.ID, "total", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn("subscriber dropped, send buffer full", "client_id", client.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register attaches a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Broadcast queues a payload for every subscriber. No-op with zero
// subscribers.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// SubscriberCount reports the number of attached clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
