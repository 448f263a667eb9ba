package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// SlotRepo provides access to the `time_slots` table.  Slot rows are
// created in bulk by the generator and mutated only through the closed
// flag and the per-slot capacity overrides.
type SlotRepo struct {
	db *sql.DB
}

func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span slot and booking rows.
func (r *SlotRepo) DB() *sql.DB { return r.db }

const slotColumns = "id, branch_id, slot_date, starts_at, ends_at, max_seats, max_tables, is_closed, created_at"

func scanSlot(row interface{ Scan(...any) error }) (*model.TimeSlot, error) {
	var (
		s         model.TimeSlot
		maxSeats  sql.NullInt64
		maxTables sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.BranchID, &s.SlotDate, &s.StartsAt, &s.EndsAt,
		&maxSeats, &maxTables, &s.IsClosed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if maxSeats.Valid {
		v := int(maxSeats.Int64)
		s.MaxSeats = &v
	}
	if maxTables.Valid {
		v := int(maxTables.Int64)
		s.MaxTables = &v
	}
	return &s, nil
}

// InsertIfAbsent bulk-inserts the given slots, skipping any (branch,
// starts_at) pair that already exists.  It returns the number of rows
// actually created, which makes generation idempotent: a second run over
// the same window reports zero.  The skip rides on the table's unique key
// via INSERT IGNORE rather than a read-then-write cycle.
func (r *SlotRepo) InsertIfAbsent(ctx context.Context, branchID uint64, slots []model.TimeSlot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	query := "INSERT IGNORE INTO time_slots (branch_id, slot_date, starts_at, ends_at) VALUES "
	args := make([]any, 0, len(slots)*4)
	for i, s := range slots {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, branchID, s.SlotDate.Format("2006-01-02"), s.StartsAt, s.EndsAt)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByBranchDate returns all slots of a branch on one calendar date,
// ordered by start time ascending.
func (r *SlotRepo) ListByBranchDate(ctx context.Context, branchID uint64, date time.Time) ([]model.TimeSlot, error) {
	q := "SELECT " + slotColumns + " FROM time_slots WHERE branch_id = ? AND slot_date = ? ORDER BY starts_at"
	rows, err := r.db.QueryContext(ctx, q, branchID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetByID fetches one slot.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	q := "SELECT " + slotColumns + " FROM time_slots WHERE id = ?"
	s, err := scanSlot(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	return s, err
}

// GetByIDForUpdateTx fetches one slot with a row lock inside the given
// transaction.  Concurrent booking attempts against the same slot
// serialize on this lock, which is what keeps the capacity recheck
// authoritative.
func (r *SlotRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.TimeSlot, error) {
	q := "SELECT " + slotColumns + " FROM time_slots WHERE id = ? FOR UPDATE"
	s, err := scanSlot(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	return s, err
}

// SetClosed flips the blackout flag on a slot, scoped to a branch so
// ownership has already been verified by the caller against that branch.
func (r *SlotRepo) SetClosed(ctx context.Context, slotID, branchID uint64, closed bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE time_slots SET is_closed = ? WHERE id = ? AND branch_id = ?",
		closed, slotID, branchID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// SetOverrides sets or clears the per-slot seat/table caps.  Nil clears an
// override back to the policy default.
func (r *SlotRepo) SetOverrides(ctx context.Context, slotID, branchID uint64, maxSeats, maxTables *int) error {
	var seats, tables sql.NullInt64
	if maxSeats != nil {
		seats = sql.NullInt64{Int64: int64(*maxSeats), Valid: true}
	}
	if maxTables != nil {
		tables = sql.NullInt64{Int64: int64(*maxTables), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE time_slots SET max_seats = ?, max_tables = ? WHERE id = ? AND branch_id = ?",
		seats, tables, slotID, branchID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}
