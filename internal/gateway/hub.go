package gateway

import (
	"sync"

	"github.com/google/uuid"
)

// Hub owns the socket registry: which clients exist, which rooms they
// joined, and which socket is each user's primary for private delivery.
// Mutated only by connection lifecycle events and room joins.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	// primary is the most recent socket per user; private balance updates
	// go only there even when the user holds several connections.
	primary map[uuid.UUID]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		primary: make(map[uuid.UUID]*Client),
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	for _, members := range h.rooms {
		delete(members, c)
	}
	if userID, _ := c.Identity(); userID != uuid.Nil && h.primary[userID] == c {
		delete(h.primary, userID)
	}
	h.mu.Unlock()
	c.close()
}

// bindUser marks c as the user's primary socket, displacing any older one.
func (h *Hub) bindUser(userID uuid.UUID, c *Client) {
	h.mu.Lock()
	h.primary[userID] = c
	h.mu.Unlock()
}

// joinRoom adds c to a named room. Rooms affect delivery topology only,
// never entitlement.
func (h *Hub) joinRoom(room string, c *Client) {
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	h.mu.Unlock()
}

// Broadcast fans msg to every connected client.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(msg)
	}
}

// BroadcastRoom fans msg to every member of room.
func (h *Hub) BroadcastRoom(room string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.enqueue(msg)
	}
}

// SendToUser delivers msg to the user's primary socket only.
func (h *Hub) SendToUser(userID uuid.UUID, msg []byte) {
	h.mu.RLock()
	c := h.primary[userID]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(msg)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
