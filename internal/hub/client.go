package hub

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sepehrdad/table-reservation/internal/model"
)

const (
	// writeWait bounds a single write or control frame.
	writeWait = 10 * time.Second
	// pongWait is the liveness probe window: a connection that produces no
	// pong (or any other frame) within it is closed and unregistered.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait so probes go out before the
	// deadline can fire.
	pingPeriod = (pongWait * 9) / 10
	// sendBuffer is the per-connection event backlog before the hub gives
	// up on a slow client.
	sendBuffer = 16
)

// Conn is the subset of *websocket.Conn the client uses.  Tests substitute
// an in-memory implementation.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one live authenticated connection.  It exists only between a
// successful handshake and disconnect and is never persisted.
type Client struct {
	hub      *Hub
	conn     Conn
	identity model.Identity
	send     chan Event
}

func newClient(h *Hub, conn Conn, ident model.Identity) *Client {
	return &Client{hub: h, conn: conn, identity: ident, send: make(chan Event, sendBuffer)}
}

// Serve registers the connection and pumps events until it dies.  It
// blocks for the connection's lifetime, which suits being called from the
// upgraded HTTP handler's goroutine.
func Serve(h *Hub, conn Conn, ident model.Identity) {
	c := newClient(h, conn, ident)
	h.Register(c, ident)

	// Queued before the write pump starts, so it is always frame one.
	c.send <- Event{Type: EventConnectionEstablished, Data: ident}

	go c.writePump()
	c.readPump()
}

// readPump discards inbound frames (clients only listen) while enforcing
// the liveness deadline.  Any frame, pong included, extends it.
func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump writes queued events and probes the peer on a fixed ticker.
// Probe failures and write failures both end the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				log.Printf("hub: write to %s failed: %v", c.identity, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(Event{Type: EventHeartbeat}); err != nil {
				return
			}
		}
	}
}
