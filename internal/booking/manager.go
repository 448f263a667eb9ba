// Package booking owns the write path of the reservation engine.  Every
// capacity-sensitive mutation runs inside a single storage transaction:
// the slot row is locked, occupancy is recomputed from current rows and
// only then is anything written.  Two concurrent attempts against the same
// slot therefore serialize, and the second re-observes the first's effect.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sepehrdad/table-reservation/internal/availability"
	"github.com/sepehrdad/table-reservation/internal/model"
)

// ErrCapacityExceeded is the expected rejection when a slot can no longer
// seat the requested party.  Nothing has been written when it is returned.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrSlotClosed is returned when the target slot has been blacked out.
var ErrSlotClosed = errors.New("slot is closed")

// ErrInvalidTransition is returned when a status change is not a legal
// step from the booking's current status.  It usually means the caller is
// acting on stale state.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound collapses "does not exist" and "not yours" into one value so
// responses never leak whether a booking or slot exists.
var ErrNotFound = errors.New("not found or unauthorized")

// ErrInvalidParty rejects party sizes below one.
var ErrInvalidParty = errors.New("party size must be at least 1")

// Tx is the set of storage operations available inside one transaction.
// The ...ForUpdate reads take row locks; the storage engine's isolation
// does the rest.
type Tx interface {
	SlotForUpdate(ctx context.Context, slotID uint64) (*model.TimeSlot, error)
	Branch(ctx context.Context, branchID uint64) (*model.Branch, error)
	SeatedWindowForUpdate(ctx context.Context, branchID uint64, startsAfter, startsBefore time.Time) ([]model.SeatedBooking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	BookingForUpdate(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uint64, status model.BookingStatus, arrivedAt *time.Time) error
}

// Store opens atomic units of work.  fn's error rolls the unit back;
// a nil return commits it.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Notifier receives booking lifecycle events after the surrounding
// transaction has committed.  Delivery is fire-and-forget: implementations
// must never fail the booking call that triggered the event.
type Notifier interface {
	BookingCreated(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch)
	BookingCancelled(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch)
	BookingArrived(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch)
	BookingCompleted(ctx context.Context, b *model.Booking, slot *model.TimeSlot, branch *model.Branch)
}

// Manager validates booking requests against current availability and
// commits them atomically.
type Manager struct {
	store    Store
	notifier Notifier
}

func NewManager(store Store, notifier Notifier) *Manager {
	return &Manager{store: store, notifier: notifier}
}

// CreateRequest carries everything needed to place a booking.  Exactly one
// of UserID or GuestName is expected to be set.
type CreateRequest struct {
	UserID    *uint64
	GuestName *string
	BranchID  uint64
	SlotID    uint64
	PartySize int
}

// Create places a diner's booking.  The capacity check and the insert
// happen under the same slot row lock, so oversell cannot occur no matter
// how requests interleave.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	return m.create(ctx, req, nil)
}

// CreateGuest places a staff-entered booking with no end-user identity.
// The caller must be the restaurant owning the branch.
func (m *Manager) CreateGuest(ctx context.Context, staff model.Identity, req CreateRequest) (*model.Booking, error) {
	if staff.Kind != model.KindRestaurant {
		return nil, ErrNotFound
	}
	req.UserID = nil
	return m.create(ctx, req, &staff)
}

func (m *Manager) create(ctx context.Context, req CreateRequest, staff *model.Identity) (*model.Booking, error) {
	if req.PartySize < 1 {
		return nil, ErrInvalidParty
	}

	var (
		booked *model.Booking
		slot   *model.TimeSlot
		branch *model.Branch
	)
	err := m.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		slot, err = tx.SlotForUpdate(ctx, req.SlotID)
		if err != nil {
			return err
		}
		if slot.BranchID != req.BranchID {
			return ErrNotFound
		}
		branch, err = tx.Branch(ctx, slot.BranchID)
		if err != nil {
			return err
		}
		if staff != nil && branch.RestaurantID != staff.ID {
			return ErrNotFound
		}
		if slot.IsClosed {
			return ErrSlotClosed
		}

		// Re-read occupancy inside the transaction.  The window is the
		// slot interval widened backwards by the reservation duration so
		// a booking that started earlier but is still seated is counted.
		dur := branch.Policy.ReservationDuration()
		seated, err := tx.SeatedWindowForUpdate(ctx, branch.ID, slot.StartsAt.Add(-dur), slot.EndsAt)
		if err != nil {
			return err
		}
		bookedSeats, bookedTables := availability.Occupancy(slot, branch.Policy, seated)
		if slot.SeatCap(branch.Policy)-bookedSeats < req.PartySize {
			return ErrCapacityExceeded
		}
		if slot.TableCap(branch.Policy)-bookedTables < 1 {
			return ErrCapacityExceeded
		}

		booked = &model.Booking{
			UserID:    req.UserID,
			GuestName: req.GuestName,
			BranchID:  branch.ID,
			SlotID:    slot.ID,
			PartySize: req.PartySize,
			Status:    model.StatusConfirmed,
		}
		return tx.InsertBooking(ctx, booked)
	})
	if err != nil {
		return nil, err
	}

	m.notifier.BookingCreated(ctx, booked, slot, branch)
	return booked, nil
}

// Cancel sets a booking to CANCELLED.  The caller must own the booking
// (diner) or own the branch (restaurant); anyone else sees ErrNotFound.
func (m *Manager) Cancel(ctx context.Context, bookingID uint64, caller model.Identity) (*model.Booking, error) {
	b, slot, branch, err := m.transition(ctx, bookingID, caller, model.StatusCancelled, false)
	if err != nil {
		return nil, err
	}
	m.notifier.BookingCancelled(ctx, b, slot, branch)
	return b, nil
}

// MarkArrived records that the party showed up.  Restaurant-only.
func (m *Manager) MarkArrived(ctx context.Context, bookingID uint64, caller model.Identity) (*model.Booking, error) {
	b, slot, branch, err := m.transition(ctx, bookingID, caller, model.StatusArrived, true)
	if err != nil {
		return nil, err
	}
	m.notifier.BookingArrived(ctx, b, slot, branch)
	return b, nil
}

// MarkCompleted closes out an arrived booking.  Restaurant-only.
func (m *Manager) MarkCompleted(ctx context.Context, bookingID uint64, caller model.Identity) (*model.Booking, error) {
	b, slot, branch, err := m.transition(ctx, bookingID, caller, model.StatusCompleted, true)
	if err != nil {
		return nil, err
	}
	m.notifier.BookingCompleted(ctx, b, slot, branch)
	return b, nil
}

func (m *Manager) transition(ctx context.Context, bookingID uint64, caller model.Identity, next model.BookingStatus, restaurantOnly bool) (*model.Booking, *model.TimeSlot, *model.Branch, error) {
	if restaurantOnly && caller.Kind != model.KindRestaurant {
		return nil, nil, nil, ErrNotFound
	}

	var (
		b      *model.Booking
		slot   *model.TimeSlot
		branch *model.Branch
	)
	err := m.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		b, err = tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		branch, err = tx.Branch(ctx, b.BranchID)
		if err != nil {
			return err
		}
		if !authorized(b, branch, caller) {
			return ErrNotFound
		}
		if !b.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
		}
		// Lock the slot row too: a cancellation frees capacity, so it must
		// serialize with concurrent creates against the same slot.
		slot, err = tx.SlotForUpdate(ctx, b.SlotID)
		if err != nil {
			return err
		}

		var arrivedAt *time.Time
		if next == model.StatusArrived {
			now := time.Now().UTC()
			arrivedAt = &now
		}
		if err := tx.UpdateBookingStatus(ctx, b.ID, next, arrivedAt); err != nil {
			return err
		}
		b.Status = next
		if arrivedAt != nil {
			b.ArrivedAt = arrivedAt
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return b, slot, branch, nil
}

// authorized reports whether the caller may act on the booking: the diner
// who placed it or the restaurant that owns the branch.
func authorized(b *model.Booking, branch *model.Branch, caller model.Identity) bool {
	switch caller.Kind {
	case model.KindDiner:
		return b.UserID != nil && *b.UserID == caller.ID
	case model.KindRestaurant:
		return branch.RestaurantID == caller.ID
	default:
		return false
	}
}
