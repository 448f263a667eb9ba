package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// fakeConn is an in-memory Conn.  ReadMessage blocks until Close, which is
// how an idle browser connection behaves.
type fakeConn struct {
	mu      sync.Mutex
	written []Event
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteJSON(v any) error {
	evt, ok := v.(Event)
	if !ok {
		return errors.New("unexpected frame type")
	}
	f.mu.Lock()
	f.written = append(f.written, evt)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) WriteControl(int, []byte, time.Time) error { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error           { return nil }
func (f *fakeConn) SetPongHandler(func(string) error)         {}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.written))
	copy(out, f.written)
	return out
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func connect(t *testing.T, h *Hub, ident model.Identity) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	go Serve(h, conn, ident)
	waitFor(t, func() bool {
		for _, e := range conn.events() {
			if e.Type == EventConnectionEstablished {
				return true
			}
		}
		return false
	})
	return conn
}

func TestConnectionEstablishedIsFirstFrame(t *testing.T) {
	h := New()
	ident := model.Identity{Kind: model.KindDiner, ID: 42}
	conn := connect(t, h, ident)
	defer conn.Close()

	events := conn.events()
	require.NotEmpty(t, events)
	assert.Equal(t, EventConnectionEstablished, events[0].Type)
	assert.Equal(t, ident, events[0].Data)
	assert.Equal(t, 1, h.Len())
}

func TestPublishReachesOnlyTargets(t *testing.T) {
	h := New()
	diner := model.Identity{Kind: model.KindDiner, ID: 1}
	otherDiner := model.Identity{Kind: model.KindDiner, ID: 2}
	restaurant := model.Identity{Kind: model.KindRestaurant, ID: 9}

	dinerConn := connect(t, h, diner)
	otherConn := connect(t, h, otherDiner)
	restConn := connect(t, h, restaurant)
	defer dinerConn.Close()
	defer otherConn.Close()
	defer restConn.Close()

	h.Publish(Event{Type: EventNewBooking, Data: "payload"}, diner, restaurant)

	has := func(conn *fakeConn, typ string) bool {
		for _, e := range conn.events() {
			if e.Type == typ {
				return true
			}
		}
		return false
	}
	waitFor(t, func() bool { return has(dinerConn, EventNewBooking) && has(restConn, EventNewBooking) })
	assert.False(t, has(otherConn, EventNewBooking))
}

func TestSameIdentityIDDifferentKindDoesNotMatch(t *testing.T) {
	h := New()
	diner := model.Identity{Kind: model.KindDiner, ID: 7}
	restaurant := model.Identity{Kind: model.KindRestaurant, ID: 7}

	dinerConn := connect(t, h, diner)
	restConn := connect(t, h, restaurant)
	defer dinerConn.Close()
	defer restConn.Close()

	h.Publish(Event{Type: EventBookingCancelled}, restaurant)

	waitFor(t, func() bool {
		for _, e := range restConn.events() {
			if e.Type == EventBookingCancelled {
				return true
			}
		}
		return false
	})
	for _, e := range dinerConn.events() {
		assert.NotEqual(t, EventBookingCancelled, e.Type)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	h := New()
	conn := connect(t, h, model.Identity{Kind: model.KindDiner, ID: 1})
	require.Equal(t, 1, h.Len())

	conn.Close()
	waitFor(t, func() bool { return h.Len() == 0 })
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := New()
	conn := newFakeConn()
	c := newClient(h, conn, model.Identity{Kind: model.KindDiner, ID: 1})
	h.Register(c, c.identity)

	h.Unregister(c)
	// the second call must not panic on the closed channel
	h.Unregister(c)
	assert.Zero(t, h.Len())
}

func TestSlowClientIsTornDown(t *testing.T) {
	h := New()
	ident := model.Identity{Kind: model.KindDiner, ID: 1}
	conn := newFakeConn()
	c := newClient(h, conn, ident)
	// registered but with no write pump draining the buffer
	h.Register(c, ident)

	for i := 0; i < sendBuffer+1; i++ {
		h.Publish(Event{Type: EventNewBooking}, ident)
	}
	assert.Zero(t, h.Len())
}
