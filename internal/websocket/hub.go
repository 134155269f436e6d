package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// SyncEvent tells open dashboards that a resource changed so they can
// refresh their lists. This channel carries CRUD chatter only; fired
// reminders travel on the per-owner event stream instead.
type SyncEvent struct {
	Resource string `json:"resource"` // "reminder", "pegawai"
	Action   string `json:"action"`   // "created", "updated", "deleted"
	ID       int64  `json:"id,omitempty"`
}

// Hub maintains the set of connected dashboard sockets and broadcasts
// sync events to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
// Safe to call more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a sync event to every connected dashboard. Slow
// clients miss events rather than stall the broadcast; a dashboard
// that misses one simply refreshes on its next interaction.
func (h *Hub) Broadcast(e SyncEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal sync event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
