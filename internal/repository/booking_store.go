package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sepehrdad/table-reservation/internal/booking"
	"github.com/sepehrdad/table-reservation/internal/model"
)

// BookingStore adapts the MySQL repositories to the booking manager's
// transactional interface.  It is the only place the manager's unit of
// work meets *sql.Tx.
type BookingStore struct {
	db       *sql.DB
	slots    *SlotRepo
	branches *BranchRepo
	bookings *BookingRepo
}

func NewBookingStore(db *sql.DB, slots *SlotRepo, branches *BranchRepo, bookings *BookingRepo) *BookingStore {
	return &BookingStore{db: db, slots: slots, branches: branches, bookings: bookings}
}

// WithinTx runs fn in one database transaction.  Any error from fn rolls
// the transaction back; a nil return commits it.
func (s *BookingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &bookingTx{store: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type bookingTx struct {
	store *BookingStore
	tx    *sql.Tx
}

func (t *bookingTx) SlotForUpdate(ctx context.Context, slotID uint64) (*model.TimeSlot, error) {
	s, err := t.store.slots.GetByIDForUpdateTx(ctx, t.tx, slotID)
	if err == ErrSlotNotFound {
		return nil, booking.ErrNotFound
	}
	return s, err
}

func (t *bookingTx) Branch(ctx context.Context, branchID uint64) (*model.Branch, error) {
	b, err := t.store.branches.GetByIDTx(ctx, t.tx, branchID)
	if err == ErrBranchNotFound {
		return nil, booking.ErrNotFound
	}
	return b, err
}

func (t *bookingTx) SeatedWindowForUpdate(ctx context.Context, branchID uint64, startsAfter, startsBefore time.Time) ([]model.SeatedBooking, error) {
	return t.store.bookings.ListSeatedWindowForUpdateTx(ctx, t.tx, branchID, startsAfter, startsBefore)
}

func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.store.bookings.CreateTx(ctx, t.tx, b)
}

func (t *bookingTx) BookingForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := t.store.bookings.GetByIDForUpdateTx(ctx, t.tx, id)
	if err == ErrBookingNotFound {
		return nil, booking.ErrNotFound
	}
	return b, err
}

func (t *bookingTx) UpdateBookingStatus(ctx context.Context, id uint64, status model.BookingStatus, arrivedAt *time.Time) error {
	return t.store.bookings.UpdateStatusTx(ctx, t.tx, id, status, arrivedAt)
}
