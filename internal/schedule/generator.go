// Package schedule materializes bookable time slots from a branch's
// booking policy.  Generation is expected to run periodically over a
// rolling forward-looking horizon; re-running over an already covered
// window creates nothing new.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// ErrInvalidPolicy rejects a branch configuration that cannot produce a
// slot calendar.  Bad policies are refused outright, never clamped.
var ErrInvalidPolicy = errors.New("invalid booking policy")

// SlotWriter persists generated slots, skipping rows that already exist
// for the same (branch, start) pair and returning the created count.
type SlotWriter interface {
	InsertIfAbsent(ctx context.Context, branchID uint64, slots []model.TimeSlot) (int64, error)
}

// Generator builds and persists slot calendars.
type Generator struct {
	slots SlotWriter
}

func NewGenerator(slots SlotWriter) *Generator { return &Generator{slots: slots} }

// ValidatePolicy checks the invariants every policy must hold: open before
// close, a positive interval, a reservation duration of at least one
// interval, and positive capacity defaults.
func ValidatePolicy(p model.BookingPolicy) error {
	open, err := p.OpenMinutes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	closeMin, err := p.CloseMinutes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	switch {
	case open >= closeMin:
		return fmt.Errorf("%w: open time %s is not before close time %s", ErrInvalidPolicy, p.OpenTime, p.CloseTime)
	case p.SlotIntervalMin <= 0:
		return fmt.Errorf("%w: slot interval must be positive", ErrInvalidPolicy)
	case p.ReservationDurationMin < p.SlotIntervalMin:
		return fmt.Errorf("%w: reservation duration shorter than slot interval", ErrInvalidPolicy)
	case p.MaxSeatsPerSlot <= 0 || p.MaxTablesPerSlot <= 0:
		return fmt.Errorf("%w: seat and table caps must be positive", ErrInvalidPolicy)
	}
	return nil
}

// Materialize builds the slot rows for one calendar date without touching
// storage.  Slots start interval-aligned at the open time; the last slot
// is the one whose end still fits before the close time.  The policy must
// already be validated.
func Materialize(branchID uint64, p model.BookingPolicy, date time.Time) []model.TimeSlot {
	open, _ := p.OpenMinutes()
	closeMin, _ := p.CloseMinutes()
	interval := p.SlotIntervalMin

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var out []model.TimeSlot
	for start := open; start+interval <= closeMin; start += interval {
		out = append(out, model.TimeSlot{
			BranchID: branchID,
			SlotDate: day,
			StartsAt: day.Add(time.Duration(start) * time.Minute),
			EndsAt:   day.Add(time.Duration(start+interval) * time.Minute),
		})
	}
	return out
}

// Generate validates the branch policy and persists slots for `days`
// consecutive dates starting at from.  It returns the number of slots
// actually created; a second run over the same window returns zero.
func (g *Generator) Generate(ctx context.Context, branch *model.Branch, from time.Time, days int) (int64, error) {
	if err := ValidatePolicy(branch.Policy); err != nil {
		return 0, err
	}
	if days <= 0 {
		return 0, fmt.Errorf("%w: day count must be positive", ErrInvalidPolicy)
	}

	var batch []model.TimeSlot
	for d := 0; d < days; d++ {
		batch = append(batch, Materialize(branch.ID, branch.Policy, from.AddDate(0, 0, d))...)
	}
	return g.slots.InsertIfAbsent(ctx, branch.ID, batch)
}
