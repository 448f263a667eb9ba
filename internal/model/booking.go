package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.  Bookings are
// auto-confirmed on creation; there is no pending/approval step.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusArrived   BookingStatus = "ARRIVED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// CanTransitionTo reports whether moving from s to next is a legal,
// monotonic step.  CONFIRMED may cancel or arrive; ARRIVED may only
// complete.  Cancelled and completed bookings are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusArrived
	case StatusArrived:
		return next == StatusCompleted
	default:
		return false
	}
}

// Booking records a party's reservation against one time slot.  UserID is
// nil for staff-entered guest bookings, in which case GuestName carries the
// walk-in's name.  A booking references exactly one slot but occupies
// capacity in every slot its reservation-duration window overlaps.
type Booking struct {
	ID        uint64        // bookings.id
	UserID    *uint64       // bookings.user_id (nullable for guest bookings)
	GuestName *string       // bookings.guest_name (nullable)
	BranchID  uint64        // bookings.branch_id
	SlotID    uint64        // bookings.slot_id
	PartySize int           // bookings.party_size
	Status    BookingStatus // bookings.status
	CreatedAt time.Time     // bookings.created_at
	ArrivedAt *time.Time    // bookings.arrived_at (nullable)
	UpdatedAt time.Time     // bookings.updated_at
}
