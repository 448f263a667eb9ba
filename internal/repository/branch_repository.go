package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// BranchRepo encapsulates queries against the `branches` table.  The
// booking policy columns live on the branch row, so every read returns a
// fully usable model.Branch with no follow-up lookup.
type BranchRepo struct {
	db *sql.DB
}

func NewBranchRepo(db *sql.DB) *BranchRepo { return &BranchRepo{db: db} }

const branchColumns = `id, restaurant_id, name, open_time, close_time,
	slot_interval_min, reservation_duration_min, max_seats_per_slot,
	max_tables_per_slot, is_active, created_at, updated_at`

func scanBranch(row interface{ Scan(...any) error }) (*model.Branch, error) {
	var b model.Branch
	err := row.Scan(
		&b.ID, &b.RestaurantID, &b.Name,
		&b.Policy.OpenTime, &b.Policy.CloseTime,
		&b.Policy.SlotIntervalMin, &b.Policy.ReservationDurationMin,
		&b.Policy.MaxSeatsPerSlot, &b.Policy.MaxTablesPerSlot,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a branch with its policy and populates the generated ID
// and timestamps.
func (r *BranchRepo) Create(ctx context.Context, b *model.Branch) error {
	const q = `INSERT INTO branches
		(restaurant_id, name, open_time, close_time, slot_interval_min,
		 reservation_duration_min, max_seats_per_slot, max_tables_per_slot)
		VALUES (?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		b.RestaurantID, b.Name,
		b.Policy.OpenTime, b.Policy.CloseTime,
		b.Policy.SlotIntervalMin, b.Policy.ReservationDurationMin,
		b.Policy.MaxSeatsPerSlot, b.Policy.MaxTablesPerSlot)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	const sel = "SELECT is_active, created_at, updated_at FROM branches WHERE id = ?"
	return r.db.QueryRowContext(ctx, sel, b.ID).Scan(&b.IsActive, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches a branch by id.
func (r *BranchRepo) GetByID(ctx context.Context, id uint64) (*model.Branch, error) {
	q := "SELECT " + branchColumns + " FROM branches WHERE id = ?"
	b, err := scanBranch(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBranchNotFound
	}
	return b, err
}

// GetByIDTx is GetByID inside an existing transaction.  The booking
// manager reads the policy through this so the capacity recheck and the
// insert observe the same rows.
func (r *BranchRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Branch, error) {
	q := "SELECT " + branchColumns + " FROM branches WHERE id = ?"
	b, err := scanBranch(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBranchNotFound
	}
	return b, err
}

// GetByIDAndRestaurant fetches a branch only when it belongs to the given
// restaurant.  Ownership mismatches collapse into ErrBranchNotFound so the
// API does not leak which branches exist.
func (r *BranchRepo) GetByIDAndRestaurant(ctx context.Context, id, restaurantID uint64) (*model.Branch, error) {
	q := "SELECT " + branchColumns + " FROM branches WHERE id = ? AND restaurant_id = ?"
	b, err := scanBranch(r.db.QueryRowContext(ctx, q, id, restaurantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBranchNotFound
	}
	return b, err
}

// ListByRestaurant returns all branches of a restaurant ordered by id.
func (r *BranchRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]*model.Branch, error) {
	q := "SELECT " + branchColumns + " FROM branches WHERE restaurant_id = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdatePolicy replaces the branch's booking policy.  Existing slots keep
// the geometry they were generated with; the new policy only affects
// future generation runs and the occupancy math's duration window.
func (r *BranchRepo) UpdatePolicy(ctx context.Context, id, restaurantID uint64, p model.BookingPolicy) error {
	const q = `UPDATE branches SET open_time=?, close_time=?, slot_interval_min=?,
		reservation_duration_min=?, max_seats_per_slot=?, max_tables_per_slot=?
		WHERE id=? AND restaurant_id=?`
	res, err := r.db.ExecContext(ctx, q,
		p.OpenTime, p.CloseTime, p.SlotIntervalMin, p.ReservationDurationMin,
		p.MaxSeatsPerSlot, p.MaxTablesPerSlot, id, restaurantID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBranchNotFound
	}
	return nil
}
