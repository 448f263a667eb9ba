package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehrdad/table-reservation/internal/model"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

// memStore is an in-memory Store whose WithinTx serializes on a mutex the
// way row locks serialize real transactions.  Writes are staged on the tx
// and applied only when fn returns nil, mirroring commit/rollback.
type memStore struct {
	mu       sync.Mutex
	slots    map[uint64]*model.TimeSlot
	branches map[uint64]*model.Branch
	bookings map[uint64]*model.Booking
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		slots:    map[uint64]*model.TimeSlot{},
		branches: map[uint64]*model.Branch{},
		bookings: map[uint64]*model.Booking{},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{s: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, b := range tx.inserted {
		cp := *b
		s.bookings[cp.ID] = &cp
	}
	for _, u := range tx.updates {
		b := s.bookings[u.id]
		b.Status = u.status
		if u.arrivedAt != nil {
			b.ArrivedAt = u.arrivedAt
		}
	}
	return nil
}

type statusUpdate struct {
	id        uint64
	status    model.BookingStatus
	arrivedAt *time.Time
}

type memTx struct {
	s        *memStore
	inserted []*model.Booking
	updates  []statusUpdate
}

func (t *memTx) SlotForUpdate(_ context.Context, slotID uint64) (*model.TimeSlot, error) {
	slot, ok := t.s.slots[slotID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

func (t *memTx) Branch(_ context.Context, branchID uint64) (*model.Branch, error) {
	branch, ok := t.s.branches[branchID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *branch
	return &cp, nil
}

func (t *memTx) SeatedWindowForUpdate(_ context.Context, branchID uint64, startsAfter, startsBefore time.Time) ([]model.SeatedBooking, error) {
	var out []model.SeatedBooking
	for _, b := range t.s.bookings {
		if b.BranchID != branchID || b.Status == model.StatusCancelled {
			continue
		}
		slot := t.s.slots[b.SlotID]
		if slot.StartsAt.After(startsAfter) && slot.StartsAt.Before(startsBefore) {
			out = append(out, model.SeatedBooking{
				BookingID: b.ID,
				SlotID:    b.SlotID,
				SlotStart: slot.StartsAt,
				PartySize: b.PartySize,
			})
		}
	}
	return out, nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	t.s.nextID++
	b.ID = t.s.nextID
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	t.inserted = append(t.inserted, b)
	return nil
}

func (t *memTx) BookingForUpdate(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (t *memTx) UpdateBookingStatus(_ context.Context, id uint64, status model.BookingStatus, arrivedAt *time.Time) error {
	if _, ok := t.s.bookings[id]; !ok {
		return ErrNotFound
	}
	t.updates = append(t.updates, statusUpdate{id: id, status: status, arrivedAt: arrivedAt})
	return nil
}

// recordingNotifier counts lifecycle events; safe for concurrent use.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(kind string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind)
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == kind {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) BookingCreated(context.Context, *model.Booking, *model.TimeSlot, *model.Branch) {
	n.record("created")
}
func (n *recordingNotifier) BookingCancelled(context.Context, *model.Booking, *model.TimeSlot, *model.Branch) {
	n.record("cancelled")
}
func (n *recordingNotifier) BookingArrived(context.Context, *model.Booking, *model.TimeSlot, *model.Branch) {
	n.record("arrived")
}
func (n *recordingNotifier) BookingCompleted(context.Context, *model.Booking, *model.TimeSlot, *model.Branch) {
	n.record("completed")
}

func defaultPolicy() model.BookingPolicy {
	return model.BookingPolicy{
		OpenTime:               "12:00",
		CloseTime:              "23:00",
		SlotIntervalMin:        30,
		ReservationDurationMin: 90,
		MaxSeatsPerSlot:        40,
		MaxTablesPerSlot:       10,
	}
}

// fixture builds one restaurant branch with consecutive 30 minute slots
// starting at 19:00.
func fixture(t *testing.T, policy model.BookingPolicy, slotCount int) (*memStore, *recordingNotifier, *Manager) {
	t.Helper()
	s := newMemStore()
	s.branches[1] = &model.Branch{ID: 1, RestaurantID: 10, Name: "downtown", Policy: policy, IsActive: true}
	for i := 0; i < slotCount; i++ {
		start := at("19:00").Add(time.Duration(i) * 30 * time.Minute)
		s.slots[uint64(i+1)] = &model.TimeSlot{
			ID:       uint64(i + 1),
			BranchID: 1,
			SlotDate: day,
			StartsAt: start,
			EndsAt:   start.Add(30 * time.Minute),
		}
	}
	n := &recordingNotifier{}
	return s, n, NewManager(s, n)
}

func uid(v uint64) *uint64 { return &v }

func TestCreateConfirmsImmediately(t *testing.T) {
	_, n, m := fixture(t, defaultPolicy(), 1)

	b, err := m.Create(context.Background(), CreateRequest{UserID: uid(5), BranchID: 1, SlotID: 1, PartySize: 4})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.NotZero(t, b.ID)
	assert.Equal(t, 1, n.count("created"))
}

func TestCreateRejectsBadRequests(t *testing.T) {
	s, _, m := fixture(t, defaultPolicy(), 1)

	_, err := m.Create(context.Background(), CreateRequest{UserID: uid(5), BranchID: 1, SlotID: 1, PartySize: 0})
	require.ErrorIs(t, err, ErrInvalidParty)

	// slot belongs to a different branch than the request claims
	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(5), BranchID: 99, SlotID: 1, PartySize: 2})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(5), BranchID: 1, SlotID: 404, PartySize: 2})
	require.ErrorIs(t, err, ErrNotFound)

	s.slots[1].IsClosed = true
	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(5), BranchID: 1, SlotID: 1, PartySize: 2})
	require.ErrorIs(t, err, ErrSlotClosed)
}

func TestConcurrentCreatesNeverOversell(t *testing.T) {
	policy := defaultPolicy()
	policy.MaxTablesPerSlot = 3
	_, n, m := fixture(t, policy, 1)

	const attempts = 12
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := m.Create(context.Background(), CreateRequest{UserID: uid(user), BranchID: 1, SlotID: 1, PartySize: 2})
			errs <- err
		}(uint64(i + 1))
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrCapacityExceeded)
			rejected++
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, attempts-3, rejected)
	assert.Equal(t, 3, n.count("created"))
}

func TestSeatCapEnforced(t *testing.T) {
	policy := defaultPolicy()
	policy.MaxSeatsPerSlot = 10
	_, _, m := fixture(t, policy, 1)

	_, err := m.Create(context.Background(), CreateRequest{UserID: uid(1), BranchID: 1, SlotID: 1, PartySize: 4})
	require.NoError(t, err)
	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(2), BranchID: 1, SlotID: 1, PartySize: 4})
	require.NoError(t, err)

	// 8 of 10 seats taken; a party of 4 no longer fits, a party of 2 does
	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(3), BranchID: 1, SlotID: 1, PartySize: 4})
	require.ErrorIs(t, err, ErrCapacityExceeded)
	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(3), BranchID: 1, SlotID: 1, PartySize: 2})
	require.NoError(t, err)
}

func TestReservationSpansLaterSlots(t *testing.T) {
	policy := defaultPolicy()
	policy.MaxTablesPerSlot = 1
	_, _, m := fixture(t, policy, 4)

	// one 90 minute booking at 19:00 holds the table through 20:30
	_, err := m.Create(context.Background(), CreateRequest{UserID: uid(1), BranchID: 1, SlotID: 1, PartySize: 2})
	require.NoError(t, err)

	for _, slotID := range []uint64{2, 3} {
		_, err = m.Create(context.Background(), CreateRequest{UserID: uid(2), BranchID: 1, SlotID: slotID, PartySize: 2})
		require.ErrorIs(t, err, ErrCapacityExceeded)
	}
	// 20:30 is past the reservation window
	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(2), BranchID: 1, SlotID: 4, PartySize: 2})
	require.NoError(t, err)
}

func TestCancelFreesCapacity(t *testing.T) {
	policy := defaultPolicy()
	policy.MaxTablesPerSlot = 1
	_, n, m := fixture(t, policy, 1)

	b, err := m.Create(context.Background(), CreateRequest{UserID: uid(1), BranchID: 1, SlotID: 1, PartySize: 2})
	require.NoError(t, err)

	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(2), BranchID: 1, SlotID: 1, PartySize: 2})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	cancelled, err := m.Cancel(context.Background(), b.ID, model.Identity{Kind: model.KindDiner, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Equal(t, 1, n.count("cancelled"))

	_, err = m.Create(context.Background(), CreateRequest{UserID: uid(2), BranchID: 1, SlotID: 1, PartySize: 2})
	require.NoError(t, err)
}

func TestGuestBooking(t *testing.T) {
	_, _, m := fixture(t, defaultPolicy(), 1)
	name := "walk-in party"
	req := CreateRequest{GuestName: &name, BranchID: 1, SlotID: 1, PartySize: 3}

	// only the restaurant owning the branch may enter guest bookings
	_, err := m.CreateGuest(context.Background(), model.Identity{Kind: model.KindDiner, ID: 1}, req)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.CreateGuest(context.Background(), model.Identity{Kind: model.KindRestaurant, ID: 99}, req)
	require.ErrorIs(t, err, ErrNotFound)

	b, err := m.CreateGuest(context.Background(), model.Identity{Kind: model.KindRestaurant, ID: 10}, req)
	require.NoError(t, err)
	assert.Nil(t, b.UserID)
	require.NotNil(t, b.GuestName)
	assert.Equal(t, name, *b.GuestName)
}

func TestTransitionAuthorization(t *testing.T) {
	_, _, m := fixture(t, defaultPolicy(), 1)
	ctx := context.Background()

	b, err := m.Create(ctx, CreateRequest{UserID: uid(1), BranchID: 1, SlotID: 1, PartySize: 2})
	require.NoError(t, err)

	// another diner cannot cancel it
	_, err = m.Cancel(ctx, b.ID, model.Identity{Kind: model.KindDiner, ID: 2})
	require.ErrorIs(t, err, ErrNotFound)

	// a different restaurant cannot touch it either
	_, err = m.Cancel(ctx, b.ID, model.Identity{Kind: model.KindRestaurant, ID: 99})
	require.ErrorIs(t, err, ErrNotFound)

	// arrive/complete are restaurant operations
	_, err = m.MarkArrived(ctx, b.ID, model.Identity{Kind: model.KindDiner, ID: 1})
	require.ErrorIs(t, err, ErrNotFound)

	arrived, err := m.MarkArrived(ctx, b.ID, model.Identity{Kind: model.KindRestaurant, ID: 10})
	require.NoError(t, err)
	assert.Equal(t, model.StatusArrived, arrived.Status)
	assert.NotNil(t, arrived.ArrivedAt)
}

func TestStatusMonotonicity(t *testing.T) {
	_, _, m := fixture(t, defaultPolicy(), 1)
	ctx := context.Background()
	owner := model.Identity{Kind: model.KindRestaurant, ID: 10}

	b, err := m.Create(ctx, CreateRequest{UserID: uid(1), BranchID: 1, SlotID: 1, PartySize: 2})
	require.NoError(t, err)

	// CONFIRMED cannot complete directly
	_, err = m.MarkCompleted(ctx, b.ID, owner)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.MarkArrived(ctx, b.ID, owner)
	require.NoError(t, err)

	// ARRIVED cannot cancel
	_, err = m.Cancel(ctx, b.ID, owner)
	require.ErrorIs(t, err, ErrInvalidTransition)

	done, err := m.MarkCompleted(ctx, b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	// COMPLETED is terminal
	_, err = m.Cancel(ctx, b.ID, owner)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.MarkArrived(ctx, b.ID, owner)
	require.ErrorIs(t, err, ErrInvalidTransition)
}
