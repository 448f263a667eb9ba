package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  Capacity-sensitive
// writes only exist as ...Tx variants: the booking manager opens the
// transaction, rechecks occupancy under row locks and commits or rolls
// back as one unit.  All timestamp fields are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for transaction management.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = "id, user_id, guest_name, branch_id, slot_id, party_size, status, created_at, arrived_at, updated_at"

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b         model.Booking
		userID    sql.NullInt64
		guestName sql.NullString
		arrivedAt sql.NullTime
	)
	err := row.Scan(&b.ID, &userID, &guestName, &b.BranchID, &b.SlotID,
		&b.PartySize, &b.Status, &b.CreatedAt, &arrivedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		b.UserID = &v
	}
	if guestName.Valid {
		v := guestName.String
		b.GuestName = &v
	}
	if arrivedAt.Valid {
		v := arrivedAt.Time
		b.ArrivedAt = &v
	}
	return &b, nil
}

// CreateTx inserts a booking within an existing transaction and populates
// the generated ID and timestamps on the passed record.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, guest_name, branch_id, slot_id, party_size, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	var userID sql.NullInt64
	if b.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*b.UserID), Valid: true}
	}
	var guestName sql.NullString
	if b.GuestName != nil {
		guestName = sql.NullString{String: *b.GuestName, Valid: true}
	}
	res, err := tx.ExecContext(ctx, q, userID, guestName, b.BranchID, b.SlotID, b.PartySize, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	const sel = "SELECT created_at, updated_at FROM bookings WHERE id = ?"
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches one booking.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	q := "SELECT " + bookingColumns + " FROM bookings WHERE id = ?"
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByIDForUpdateTx fetches one booking with a row lock so concurrent
// status transitions on the same booking serialize.
func (r *BookingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	q := "SELECT " + bookingColumns + " FROM bookings WHERE id = ? FOR UPDATE"
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// UpdateStatusTx writes a new status (and optionally arrived_at) inside
// the transaction.  Transition legality is the manager's responsibility;
// the repository only persists.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus, arrivedAt *time.Time) error {
	if arrivedAt != nil {
		_, err := tx.ExecContext(ctx,
			"UPDATE bookings SET status = ?, arrived_at = ? WHERE id = ?",
			status, *arrivedAt, id)
		return err
	}
	_, err := tx.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ?", status, id)
	return err
}

// ListSeatedByDate returns the occupancy projection of every non-cancelled
// booking placed against any slot of the branch on the given date.  This
// feeds the read-path availability computation.
func (r *BookingRepo) ListSeatedByDate(ctx context.Context, branchID uint64, date time.Time) ([]model.SeatedBooking, error) {
	const q = `SELECT b.id, b.slot_id, ts.starts_at, b.party_size
		FROM bookings b
		JOIN time_slots ts ON ts.id = b.slot_id
		WHERE ts.branch_id = ? AND ts.slot_date = ? AND b.status <> 'CANCELLED'`
	rows, err := r.db.QueryContext(ctx, q, branchID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeated(rows)
}

// ListSeatedWindowForUpdateTx returns, under row locks, the occupancy
// projection of every non-cancelled booking whose slot starts inside
// (startsAfter, startsBefore) on the branch.  The manager widens the
// window by the reservation duration so bookings seated across the target
// slot are captured, and the FOR UPDATE keeps a concurrent insert against
// the same rows waiting until this transaction resolves.
func (r *BookingRepo) ListSeatedWindowForUpdateTx(ctx context.Context, tx *sql.Tx, branchID uint64, startsAfter, startsBefore time.Time) ([]model.SeatedBooking, error) {
	const q = `SELECT b.id, b.slot_id, ts.starts_at, b.party_size
		FROM bookings b
		JOIN time_slots ts ON ts.id = b.slot_id
		WHERE ts.branch_id = ? AND ts.starts_at > ? AND ts.starts_at < ?
		  AND b.status <> 'CANCELLED'
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, branchID, startsAfter, startsBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSeated(rows)
}

func collectSeated(rows *sql.Rows) ([]model.SeatedBooking, error) {
	var out []model.SeatedBooking
	for rows.Next() {
		var sb model.SeatedBooking
		if err := rows.Scan(&sb.BookingID, &sb.SlotID, &sb.SlotStart, &sb.PartySize); err != nil {
			return nil, err
		}
		out = append(out, sb)
	}
	return out, rows.Err()
}

// BookingDetail joins a booking with its slot times and branch name for
// list responses.  Handlers expose these rows directly.
type BookingDetail struct {
	Booking    model.Booking
	SlotStart  time.Time
	SlotEnd    time.Time
	BranchName string
}

const detailQuery = `SELECT b.id, b.user_id, b.guest_name, b.branch_id, b.slot_id,
		b.party_size, b.status, b.created_at, b.arrived_at, b.updated_at,
		ts.starts_at, ts.ends_at, br.name
	FROM bookings b
	JOIN time_slots ts ON ts.id = b.slot_id
	JOIN branches br ON br.id = b.branch_id`

func collectDetails(rows *sql.Rows) ([]BookingDetail, error) {
	var out []BookingDetail
	for rows.Next() {
		var (
			d         BookingDetail
			userID    sql.NullInt64
			guestName sql.NullString
			arrivedAt sql.NullTime
		)
		err := rows.Scan(&d.Booking.ID, &userID, &guestName, &d.Booking.BranchID,
			&d.Booking.SlotID, &d.Booking.PartySize, &d.Booking.Status,
			&d.Booking.CreatedAt, &arrivedAt, &d.Booking.UpdatedAt,
			&d.SlotStart, &d.SlotEnd, &d.BranchName)
		if err != nil {
			return nil, err
		}
		if userID.Valid {
			v := uint64(userID.Int64)
			d.Booking.UserID = &v
		}
		if guestName.Valid {
			v := guestName.String
			d.Booking.GuestName = &v
		}
		if arrivedAt.Valid {
			v := arrivedAt.Time
			d.Booking.ArrivedAt = &v
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByUser returns a diner's bookings newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	q := detailQuery + " WHERE b.user_id = ? ORDER BY ts.starts_at DESC"
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

// ListByBranchDate returns all bookings of a branch on one date for the
// staff dashboard, ordered by slot start.
func (r *BookingRepo) ListByBranchDate(ctx context.Context, branchID uint64, date time.Time) ([]BookingDetail, error) {
	q := detailQuery + " WHERE b.branch_id = ? AND ts.slot_date = ? ORDER BY ts.starts_at"
	rows, err := r.db.QueryContext(ctx, q, branchID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}
