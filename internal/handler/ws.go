package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/gate"
	"github.com/sepehrdad/table-reservation/internal/hub"
)

// WSHandler upgrades authenticated clients onto the realtime feed.  The
// session is checked before the upgrade: a request without a valid session
// cookie gets a plain 401 and no websocket is ever established.
type WSHandler struct {
	Gate *gate.Gate
	Hub  *hub.Hub

	upgrader websocket.Upgrader
}

func NewWSHandler(g *gate.Gate, h *hub.Hub) *WSHandler {
	if g == nil || h == nil {
		panic("nil dependency passed to NewWSHandler")
	}
	return &WSHandler{
		Gate: g,
		Hub:  h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// cross-origin browser clients are expected; auth rests on
			// the session cookie, not the Origin header
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws.
func (h *WSHandler) Serve(c echo.Context) error {
	ident, err := h.Gate.Authenticate(c.Request())
	if err != nil {
		if errors.Is(err, gate.ErrHandshakeRejected) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		// session store unreachable: distinct from a bad credential
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session check failed"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written its own error response
		log.Printf("[ws] upgrade failed for %s: %v", ident, err)
		return nil
	}

	hub.Serve(h.Hub, conn, ident)
	return nil
}
