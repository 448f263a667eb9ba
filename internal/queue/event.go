package queue

// BookingLifecycleEvent is published for every booking state change
// (created, cancelled, arrived, completed).  It carries enough for
// downstream consumers to log or trigger notifications without querying
// the primary database.
type BookingLifecycleEvent struct {
	Type       string  `json:"type"` // new_booking, booking_cancelled, booking_arrived, booking_completed
	BookingID  uint64  `json:"booking_id"`
	UserID     *uint64 `json:"user_id,omitempty"`
	GuestName  *string `json:"guest_name,omitempty"`
	BranchID   uint64  `json:"branch_id"`
	BranchName string  `json:"branch_name"`
	SlotID     uint64  `json:"slot_id"`
	SlotStart  string  `json:"slot_start"`
	SlotEnd    string  `json:"slot_end"`
	PartySize  int     `json:"party_size"`
	Status     string  `json:"status"`
	OccurredAt string  `json:"occurred_at"`
}
