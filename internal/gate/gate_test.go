package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
)

type fakeSessions struct {
	sessions map[string]model.Identity
	err      error
	delay    time.Duration
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (model.Identity, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return model.Identity{}, ctx.Err()
		}
	}
	if f.err != nil {
		return model.Identity{}, f.err
	}
	ident, ok := f.sessions[token]
	if !ok {
		return model.Identity{}, repository.ErrSessionNotFound
	}
	return ident, nil
}

func handshake(cookie string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if cookie != "" {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	return r
}

func TestAuthenticateResolvesIdentity(t *testing.T) {
	want := model.Identity{Kind: model.KindRestaurant, ID: 7}
	g := New(&fakeSessions{sessions: map[string]model.Identity{"tok": want}}, 0)

	ident, err := g.Authenticate(handshake("tok"))
	require.NoError(t, err)
	assert.Equal(t, want, ident)
}

func TestAuthenticateRejectsMissingCookie(t *testing.T) {
	g := New(&fakeSessions{sessions: map[string]model.Identity{}}, 0)

	_, err := g.Authenticate(handshake(""))
	require.ErrorIs(t, err, ErrHandshakeRejected)
}

func TestAuthenticateRejectsUnknownSession(t *testing.T) {
	g := New(&fakeSessions{sessions: map[string]model.Identity{}}, 0)

	_, err := g.Authenticate(handshake("expired-or-bogus"))
	require.ErrorIs(t, err, ErrHandshakeRejected)
}

func TestAuthenticateRejectsOnTimeout(t *testing.T) {
	g := New(&fakeSessions{delay: time.Second}, 20*time.Millisecond)

	_, err := g.Authenticate(handshake("tok"))
	require.ErrorIs(t, err, ErrHandshakeRejected)
}

func TestAuthenticateSurfacesStoreFailure(t *testing.T) {
	storeDown := errors.New("connection refused")
	g := New(&fakeSessions{err: storeDown}, 0)

	_, err := g.Authenticate(handshake("tok"))
	require.ErrorIs(t, err, storeDown)
	assert.NotErrorIs(t, err, ErrHandshakeRejected)
}
