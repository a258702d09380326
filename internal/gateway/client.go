package gateway

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Role is the authorization level of a connection.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
	RoleGuest Role = "GUEST"
)

// Client is one socket session. Identity is attached on handshake or by a
// later authenticate message; guests stay connected with public-only access.
type Client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	userID uuid.UUID
	role   Role
	closed bool

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 256),
		role: RoleGuest,
	}
}

// Identity returns the current (userID, role) pair.
func (c *Client) Identity() (uuid.UUID, Role) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.role
}

// Authenticated reports whether the connection carries a user identity.
func (c *Client) Authenticated() bool {
	_, role := c.Identity()
	return role != RoleGuest
}

func (c *Client) setIdentity(userID uuid.UUID, role Role) {
	c.mu.Lock()
	c.userID = userID
	c.role = role
	c.mu.Unlock()
}

// enqueue queues a message for delivery, dropping it when the client's
// buffer is full so one slow socket cannot back-pressure the fan-out. The
// closed check is taken under the same lock close holds while shutting the
// queue, so a sender racing a disconnect drops instead of hitting a closed
// channel.
func (c *Client) enqueue(msg []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// writePump drains the send queue onto the socket. Runs in its own
// goroutine; exits when the queue is closed.
func (c *Client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// close shuts the send queue exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
	})
}
