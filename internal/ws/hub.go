package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

const sendBuffer = 16

// Hub tracks connected clients per user and fans out poll hints. A user
// may hold several connections (tabs, devices).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{clients: make(map[string]map[*Client]struct{}), log: log}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop must be called with mu held.
func (h *Hub) drop(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Online reports how many connections userID holds.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) Notify(userIDs []string, hint models.Hint) {
	data, ok := h.encode(hint)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		for c := range h.clients[id] {
			h.deliver(c, data)
		}
	}
}

func (h *Hub) Broadcast(hint models.Hint) {
	data, ok := h.encode(hint)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.deliver(c, data)
		}
	}
}

// deliver drops clients that stopped draining their buffer; they reconnect
// and poll.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn("dropping slow websocket client", zap.String("user_id", c.UserID))
		h.drop(c)
	}
}

func (h *Hub) encode(hint models.Hint) ([]byte, bool) {
	data, err := json.Marshal(hint)
	if err != nil {
		h.log.Error("marshal hint", zap.Error(err))
		return nil, false
	}
	return data, true
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.drop(c)
		}
	}
}
