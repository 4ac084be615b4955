package wshub

import (
	"context"
	"sync"

	"eyespy/internal/metrics"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Client represents a single observer WebSocket connection in the hub.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// NewClient wraps a WebSocket connection as an observer handle.
func NewClient(conn *websocket.Conn, sendBuffer int) *Client {
	return &Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub holds the observer connections of a single room.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds an observer to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes an observer and closes its Send channel. Idempotent.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.Send)
		delete(h.clients, id)
	}
}

// Count returns the number of registered observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues a message for every observer. Non-blocking: a handle whose
// send buffer is full misses this delivery and catches up on the next one.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			metrics.DroppedDeliveries.Inc()
		}
	}
}

// Deliver queues a message for one observer only, used for the snapshot sent
// on attach. Same non-blocking discipline as Broadcast.
func (h *Hub) Deliver(id string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok {
		select {
		case c.Send <- data:
		default:
			metrics.DroppedDeliveries.Inc()
		}
	}
}
