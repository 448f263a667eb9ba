package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// RestaurantRepo encapsulates queries against the `restaurants` table.
// Each restaurant belongs to one owner account and contains branches.
type RestaurantRepo struct {
	db *sql.DB
}

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

// Create inserts a new restaurant and populates the generated ID plus the
// DB-defaulted timestamps on the passed record.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant) error {
	const qInsert = "INSERT INTO restaurants (owner_user_id, name) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, rest.OwnerUserID, rest.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM restaurants WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, rest.ID).Scan(&rest.CreatedAt, &rest.UpdatedAt)
}

// GetByID fetches a restaurant regardless of owner.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = "SELECT id, owner_user_id, name, created_at, updated_at FROM restaurants WHERE id = ?"
	var rest model.Restaurant
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&rest.ID, &rest.OwnerUserID, &rest.Name, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &rest, nil
}

// GetByOwner fetches the restaurant belonging to a specific owner account.
// Login uses this lookup to bind the restaurant identity to the session.
func (r *RestaurantRepo) GetByOwner(ctx context.Context, ownerUserID uint64) (*model.Restaurant, error) {
	const q = "SELECT id, owner_user_id, name, created_at, updated_at FROM restaurants WHERE owner_user_id = ? LIMIT 1"
	var rest model.Restaurant
	if err := r.db.QueryRowContext(ctx, q, ownerUserID).Scan(&rest.ID, &rest.OwnerUserID, &rest.Name, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &rest, nil
}

// ListAll returns every restaurant ordered by id, for the public browse API.
func (r *RestaurantRepo) ListAll(ctx context.Context) ([]*model.Restaurant, error) {
	const q = "SELECT id, owner_user_id, name, created_at, updated_at FROM restaurants ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Restaurant
	for rows.Next() {
		var rest model.Restaurant
		if err := rows.Scan(&rest.ID, &rest.OwnerUserID, &rest.Name, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rest)
	}
	return out, rows.Err()
}

// UpdateName renames the restaurant, scoped to its owner.
func (r *RestaurantRepo) UpdateName(ctx context.Context, id, ownerUserID uint64, name string) error {
	const q = "UPDATE restaurants SET name = ? WHERE id = ? AND owner_user_id = ?"
	res, err := r.db.ExecContext(ctx, q, name, id, ownerUserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}
