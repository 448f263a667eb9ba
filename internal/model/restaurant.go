package model

import (
	"fmt"
	"time"
)

// Restaurant represents a restaurant tenant owned by a user.  A restaurant
// can operate multiple branches, each with its own booking policy.
type Restaurant struct {
	ID          uint64    // restaurants.id
	OwnerUserID uint64    // restaurants.owner_user_id
	Name        string    // restaurants.name
	CreatedAt   time.Time // restaurants.created_at
	UpdatedAt   time.Time // restaurants.updated_at
}

// BookingPolicy is the per-branch configuration the slot generator and the
// availability calculator work from.  Open and close times are wall-clock
// strings in "15:04" form; all numeric fields are validated by the slot
// generator before any slot is materialized.
type BookingPolicy struct {
	OpenTime               string `json:"open_time"`                // e.g. "12:00"
	CloseTime              string `json:"close_time"`               // e.g. "23:00", same day
	SlotIntervalMin        int    `json:"slot_interval_min"`        // slot width in minutes
	ReservationDurationMin int    `json:"reservation_duration_min"` // how long a party occupies capacity
	MaxSeatsPerSlot        int    `json:"max_seats_per_slot"`       // default seat cap, slot may override
	MaxTablesPerSlot       int    `json:"max_tables_per_slot"`      // default table cap, slot may override
}

// OpenMinutes returns the open time as minutes since midnight.
func (p BookingPolicy) OpenMinutes() (int, error) { return parseWallClock(p.OpenTime) }

// CloseMinutes returns the close time as minutes since midnight.
func (p BookingPolicy) CloseMinutes() (int, error) { return parseWallClock(p.CloseTime) }

// ReservationDuration returns the occupancy window length.
func (p BookingPolicy) ReservationDuration() time.Duration {
	return time.Duration(p.ReservationDurationMin) * time.Minute
}

func parseWallClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid wall-clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Branch is a single physical restaurant location.  The policy columns live
// on the branch row itself so availability math never needs a second lookup.
type Branch struct {
	ID           uint64        // branches.id
	RestaurantID uint64        // branches.restaurant_id
	Name         string        // branches.name
	Policy       BookingPolicy // open/close/interval/duration/cap columns
	IsActive     bool          // branches.is_active
	CreatedAt    time.Time     // branches.created_at
	UpdatedAt    time.Time     // branches.updated_at
}
