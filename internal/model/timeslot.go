package model

import "time"

// TimeSlot is one fixed-width bookable interval generated from a branch's
// booking policy.  Slots are created in bulk for a forward-looking window
// and never deleted; a branch blacks one out by setting IsClosed.  MaxSeats
// and MaxTables are optional per-slot overrides of the policy defaults.
type TimeSlot struct {
	ID        uint64    // time_slots.id
	BranchID  uint64    // time_slots.branch_id
	SlotDate  time.Time // time_slots.slot_date (date component only, UTC)
	StartsAt  time.Time // time_slots.starts_at
	EndsAt    time.Time // time_slots.ends_at (= starts_at + interval)
	MaxSeats  *int      // time_slots.max_seats (nullable override)
	MaxTables *int      // time_slots.max_tables (nullable override)
	IsClosed  bool      // time_slots.is_closed
	CreatedAt time.Time // time_slots.created_at
}

// SeatCap resolves the effective seat capacity for the slot, falling back
// to the policy default when no override is set.
func (s *TimeSlot) SeatCap(p BookingPolicy) int {
	if s.MaxSeats != nil {
		return *s.MaxSeats
	}
	return p.MaxSeatsPerSlot
}

// TableCap resolves the effective table capacity for the slot.
func (s *TimeSlot) TableCap(p BookingPolicy) int {
	if s.MaxTables != nil {
		return *s.MaxTables
	}
	return p.MaxTablesPerSlot
}
