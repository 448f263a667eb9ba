// Package hub tracks live websocket connections by authenticated identity
// and fans booking lifecycle events out to exactly the connections whose
// identity is in an event's target set.  Delivery is best-effort: a send
// that fails, or a client too slow to drain its buffer, gets torn down and
// unregistered.  Clients reconcile through a follow-up read, not redelivery.
package hub

import (
	"sync"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// Wire event types pushed to clients as {"type": ..., "data": ...}.
const (
	EventConnectionEstablished = "connection_established"
	EventNewBooking            = "new_booking"
	EventBookingCancelled      = "booking_cancelled"
	EventBookingArrived        = "booking_arrived"
	EventBookingCompleted      = "booking_completed"
	EventHeartbeat             = "heartbeat"
)

// Event is the JSON frame delivered to clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub owns the connection-to-identity mapping.  One synchronized map, no
// ambient package state; register, unregister and publish may be called
// from any goroutine.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]model.Identity
}

func New() *Hub {
	return &Hub{clients: make(map[*Client]model.Identity)}
}

// Register adds a connection under its authenticated identity.
func (h *Hub) Register(c *Client, ident model.Identity) {
	h.mu.Lock()
	h.clients[c] = ident
	h.mu.Unlock()
}

// Unregister removes the connection and closes it.  Safe to call more
// than once; the map membership gates the single close of the send
// channel and the socket.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

// Publish delivers the event to every registered connection whose
// identity is in targets.  Connections that cannot keep up are torn down
// rather than blocking the publisher.
func (h *Hub) Publish(evt Event, targets ...model.Identity) {
	var stalled []*Client

	h.mu.Lock()
	for c, ident := range h.clients {
		if !identityIn(ident, targets) {
			continue
		}
		select {
		case c.send <- evt:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.Unlock()

	for _, c := range stalled {
		h.Unregister(c)
	}
}

// Len reports the number of live registered connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func identityIn(ident model.Identity, set []model.Identity) bool {
	for _, t := range set {
		if t == ident {
			return true
		}
	}
	return false
}
