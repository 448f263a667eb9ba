// Package gate authenticates long-lived connections before they may join
// the notification fan-out.  The websocket transport has no per-message
// cookie, so the identity established by the HTTP login flow is re-derived
// exactly once, from the handshake request, and trusted for the
// connection's lifetime.
package gate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
)

// SessionCookie is the cookie carrying the session token minted at login.
const SessionCookie = "trsid"

// ErrHandshakeRejected is returned for every refusal: missing cookie,
// unknown or expired session, or a resolve that ran out of time.  The
// caller must refuse the upgrade; a rejected handshake never degrades to
// an unauthenticated connection.
var ErrHandshakeRejected = errors.New("handshake rejected")

// SessionStore resolves a session token to the identity bound at login.
type SessionStore interface {
	Resolve(ctx context.Context, token string) (model.Identity, error)
}

// Gate resolves handshake material to an identity within a bounded time.
type Gate struct {
	sessions SessionStore
	timeout  time.Duration
}

func New(sessions SessionStore, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Gate{sessions: sessions, timeout: timeout}
}

// Authenticate extracts the session token from the request's cookies and
// resolves it against the session store.  A handshake that cannot resolve
// an identity within the gate's timeout is rejected, not left pending.
func (g *Gate) Authenticate(r *http.Request) (model.Identity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return model.Identity{}, ErrHandshakeRejected
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	ident, err := g.sessions.Resolve(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) || errors.Is(err, context.DeadlineExceeded) {
			return model.Identity{}, ErrHandshakeRejected
		}
		// Session store unavailable: still a refusal, but surfaced
		// distinctly so the handler can answer 500 instead of 401.
		return model.Identity{}, err
	}
	return ident, nil
}
