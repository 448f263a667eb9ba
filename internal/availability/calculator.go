// Package availability turns slot rows and booking rows into per-slot
// remaining capacity.  The same math serves the public read endpoint and
// the in-transaction recheck run by the booking manager, so what the UI
// shows and what the write path enforces can never drift apart.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// SlotView is the derived availability of one time slot.  It is computed
// on demand and never persisted.
type SlotView struct {
	SlotID          uint64    `json:"slot_id"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	MaxSeats        int       `json:"max_seats"`
	MaxTables       int       `json:"max_tables"`
	BookedSeats     int       `json:"booked_seats"`
	BookedTables    int       `json:"booked_tables"`
	AvailableSeats  int       `json:"available_seats"`
	AvailableTables int       `json:"available_tables"`
	IsClosed        bool      `json:"is_closed"`
	IsAvailable     bool      `json:"is_available"`
}

// SlotSource lists the generated slots of a branch on one date.
type SlotSource interface {
	ListByBranchDate(ctx context.Context, branchID uint64, date time.Time) ([]model.TimeSlot, error)
}

// BookingSource lists the occupancy projection of all non-cancelled
// bookings seated on a branch during one date.
type BookingSource interface {
	ListSeatedByDate(ctx context.Context, branchID uint64, date time.Time) ([]model.SeatedBooking, error)
}

// Calculator fetches slots plus bookings and derives SlotViews.
type Calculator struct {
	slots    SlotSource
	bookings BookingSource
}

func NewCalculator(slots SlotSource, bookings BookingSource) *Calculator {
	return &Calculator{slots: slots, bookings: bookings}
}

// Overlaps reports whether a reservation window starting at bookingStart
// occupies any part of the slot interval [slotStart, slotEnd).  The window
// is [bookingStart, bookingStart+duration): half-open on both sides, so a
// reservation ending exactly at a slot boundary does not spill into the
// next slot.
func Overlaps(bookingStart time.Time, duration time.Duration, slotStart, slotEnd time.Time) bool {
	return bookingStart.Before(slotEnd) && bookingStart.Add(duration).After(slotStart)
}

// Occupancy sums the seats and counts the distinct bookings whose
// reservation window overlaps the given slot.
func Occupancy(slot *model.TimeSlot, policy model.BookingPolicy, seated []model.SeatedBooking) (seats, tables int) {
	dur := policy.ReservationDuration()
	for _, b := range seated {
		if Overlaps(b.SlotStart, dur, slot.StartsAt, slot.EndsAt) {
			seats += b.PartySize
			tables++
		}
	}
	return seats, tables
}

// View derives the availability of a single slot from its occupancy.
func View(slot *model.TimeSlot, policy model.BookingPolicy, seated []model.SeatedBooking) SlotView {
	bookedSeats, bookedTables := Occupancy(slot, policy, seated)
	maxSeats := slot.SeatCap(policy)
	maxTables := slot.TableCap(policy)
	v := SlotView{
		SlotID:          slot.ID,
		StartsAt:        slot.StartsAt,
		EndsAt:          slot.EndsAt,
		MaxSeats:        maxSeats,
		MaxTables:       maxTables,
		BookedSeats:     bookedSeats,
		BookedTables:    bookedTables,
		AvailableSeats:  max(0, maxSeats-bookedSeats),
		AvailableTables: max(0, maxTables-bookedTables),
		IsClosed:        slot.IsClosed,
	}
	v.IsAvailable = !v.IsClosed && v.AvailableSeats > 0 && v.AvailableTables > 0
	return v
}

// BuildViews derives a view per slot, sorted by start time ascending.
func BuildViews(slots []model.TimeSlot, policy model.BookingPolicy, seated []model.SeatedBooking) []SlotView {
	views := make([]SlotView, 0, len(slots))
	for i := range slots {
		views = append(views, View(&slots[i], policy, seated))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].StartsAt.Before(views[j].StartsAt) })
	return views
}

// ForDate computes the full per-slot availability of a branch on one date.
// A date with zero generated slots yields an empty result, not an error:
// the branch simply is not open that day.
func (c *Calculator) ForDate(ctx context.Context, branch *model.Branch, date time.Time) ([]SlotView, error) {
	slots, err := c.slots.ListByBranchDate(ctx, branch.ID, date)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return []SlotView{}, nil
	}
	seated, err := c.bookings.ListSeatedByDate(ctx, branch.ID, date)
	if err != nil {
		return nil, err
	}
	return BuildViews(slots, branch.Policy, seated), nil
}

// ClosestResult is the answer to a requested-time query: the single slot
// whose start is numerically closest to the requested time, plus whether
// any slot on the whole date still has availability.
type ClosestResult struct {
	Slot            *SlotView `json:"slot"`
	HasAvailability bool      `json:"has_availability"`
}

// Closest finds the slot nearest to the requested time.  Ties break toward
// the earlier start.  A nil Slot means the branch has no slots that day.
func (c *Calculator) Closest(ctx context.Context, branch *model.Branch, date, requested time.Time) (ClosestResult, error) {
	views, err := c.ForDate(ctx, branch, date)
	if err != nil {
		return ClosestResult{}, err
	}
	var res ClosestResult
	for i := range views {
		if views[i].IsAvailable {
			res.HasAvailability = true
			break
		}
	}
	var best *SlotView
	var bestDist time.Duration
	for i := range views {
		d := views[i].StartsAt.Sub(requested)
		if d < 0 {
			d = -d
		}
		// Strict < keeps the earliest slot on ties because views are
		// sorted ascending.
		if best == nil || d < bestDist {
			best = &views[i]
			bestDist = d
		}
	}
	res.Slot = best
	return res, nil
}
