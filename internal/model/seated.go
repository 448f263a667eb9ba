package model

import "time"

// SeatedBooking is the projection of a booking the availability math
// needs: how large the party is and when its reservation window starts.
// The window start is the start of the slot the booking was placed
// against; the window length comes from the branch policy.
type SeatedBooking struct {
	BookingID uint64
	SlotID    uint64
	SlotStart time.Time
	PartySize int
}
