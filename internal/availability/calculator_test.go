package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehrdad/table-reservation/internal/model"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

func testPolicy() model.BookingPolicy {
	return model.BookingPolicy{
		OpenTime:               "12:00",
		CloseTime:              "23:00",
		SlotIntervalMin:        30,
		ReservationDurationMin: 90,
		MaxSeatsPerSlot:        40,
		MaxTablesPerSlot:       10,
	}
}

func slot(id uint64, start string) model.TimeSlot {
	return model.TimeSlot{
		ID:       id,
		BranchID: 1,
		SlotDate: day,
		StartsAt: at(start),
		EndsAt:   at(start).Add(30 * time.Minute),
	}
}

func TestOverlaps(t *testing.T) {
	// a 90 minute reservation starting 19:00 occupies the 19:00, 19:30
	// and 20:00 slots but not 20:30 or 18:30
	dur := 90 * time.Minute
	start := at("19:00")

	assert.True(t, Overlaps(start, dur, at("19:00"), at("19:30")))
	assert.True(t, Overlaps(start, dur, at("19:30"), at("20:00")))
	assert.True(t, Overlaps(start, dur, at("20:00"), at("20:30")))
	assert.False(t, Overlaps(start, dur, at("20:30"), at("21:00")))
	assert.False(t, Overlaps(start, dur, at("18:30"), at("19:00")))
}

func TestOccupancyCountsSeatsAndTables(t *testing.T) {
	p := testPolicy()
	s := slot(1, "19:30")
	seated := []model.SeatedBooking{
		{BookingID: 1, SlotStart: at("19:00"), PartySize: 4}, // spills in
		{BookingID: 2, SlotStart: at("19:30"), PartySize: 2}, // direct
		{BookingID: 3, SlotStart: at("18:00"), PartySize: 6}, // ends 19:30, no spill
		{BookingID: 4, SlotStart: at("21:00"), PartySize: 8}, // later
	}
	seats, tables := Occupancy(&s, p, seated)
	assert.Equal(t, 6, seats)
	assert.Equal(t, 2, tables)
}

func TestViewSixTopExample(t *testing.T) {
	// one table of six at 19:00 occupies three consecutive slots
	p := testPolicy()
	seated := []model.SeatedBooking{{BookingID: 1, SlotStart: at("19:00"), PartySize: 6}}

	for _, start := range []string{"19:00", "19:30", "20:00"} {
		s := slot(1, start)
		v := View(&s, p, seated)
		assert.Equal(t, 34, v.AvailableSeats, start)
		assert.Equal(t, 9, v.AvailableTables, start)
		assert.True(t, v.IsAvailable, start)
	}
	s := slot(1, "20:30")
	v := View(&s, p, seated)
	assert.Equal(t, 40, v.AvailableSeats)
	assert.Equal(t, 10, v.AvailableTables)
}

func TestViewOverridesAndClosed(t *testing.T) {
	p := testPolicy()
	ten := 10
	two := 2

	s := slot(1, "12:00")
	s.MaxSeats = &ten
	s.MaxTables = &two
	v := View(&s, p, nil)
	assert.Equal(t, 10, v.MaxSeats)
	assert.Equal(t, 2, v.MaxTables)
	assert.True(t, v.IsAvailable)

	s.IsClosed = true
	v = View(&s, p, nil)
	assert.Equal(t, 10, v.AvailableSeats) // capacity still reported
	assert.False(t, v.IsAvailable)
}

func TestViewAvailabilityNeverNegative(t *testing.T) {
	p := testPolicy()
	p.MaxSeatsPerSlot = 4
	s := slot(1, "12:00")
	seated := []model.SeatedBooking{
		{BookingID: 1, SlotStart: at("12:00"), PartySize: 3},
		{BookingID: 2, SlotStart: at("12:00"), PartySize: 3},
	}
	v := View(&s, p, seated)
	assert.Equal(t, 6, v.BookedSeats)
	assert.Zero(t, v.AvailableSeats)
	assert.False(t, v.IsAvailable)
}

func TestViewFullTablesBlockEvenWithSeatsLeft(t *testing.T) {
	p := testPolicy()
	p.MaxTablesPerSlot = 2
	s := slot(1, "12:00")
	seated := []model.SeatedBooking{
		{BookingID: 1, SlotStart: at("12:00"), PartySize: 2},
		{BookingID: 2, SlotStart: at("12:00"), PartySize: 2},
	}
	v := View(&s, p, seated)
	assert.Positive(t, v.AvailableSeats)
	assert.Zero(t, v.AvailableTables)
	assert.False(t, v.IsAvailable)
}

// ---- Calculator with fake sources ----

type fakeSlots struct{ slots []model.TimeSlot }

func (f *fakeSlots) ListByBranchDate(context.Context, uint64, time.Time) ([]model.TimeSlot, error) {
	return f.slots, nil
}

type fakeSeated struct{ seated []model.SeatedBooking }

func (f *fakeSeated) ListSeatedByDate(context.Context, uint64, time.Time) ([]model.SeatedBooking, error) {
	return f.seated, nil
}

func branchWith(p model.BookingPolicy) *model.Branch {
	return &model.Branch{ID: 1, RestaurantID: 1, Name: "downtown", Policy: p, IsActive: true}
}

func TestForDateEmptyCalendar(t *testing.T) {
	c := NewCalculator(&fakeSlots{}, &fakeSeated{})
	views, err := c.ForDate(context.Background(), branchWith(testPolicy()), day)
	require.NoError(t, err)
	require.NotNil(t, views)
	assert.Empty(t, views)
}

func TestForDateSortsByStart(t *testing.T) {
	c := NewCalculator(
		&fakeSlots{slots: []model.TimeSlot{slot(3, "14:00"), slot(1, "12:00"), slot(2, "13:00")}},
		&fakeSeated{},
	)
	views, err := c.ForDate(context.Background(), branchWith(testPolicy()), day)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, uint64(1), views[0].SlotID)
	assert.Equal(t, uint64(2), views[1].SlotID)
	assert.Equal(t, uint64(3), views[2].SlotID)
}

func TestClosestPicksNearestSlot(t *testing.T) {
	c := NewCalculator(
		&fakeSlots{slots: []model.TimeSlot{slot(1, "12:00"), slot(2, "12:30"), slot(3, "13:00")}},
		&fakeSeated{},
	)
	b := branchWith(testPolicy())

	res, err := c.Closest(context.Background(), b, day, at("12:40"))
	require.NoError(t, err)
	require.NotNil(t, res.Slot)
	assert.Equal(t, uint64(2), res.Slot.SlotID)
	assert.True(t, res.HasAvailability)

	// exact midpoint ties toward the earlier slot
	res, err = c.Closest(context.Background(), b, day, at("12:15"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Slot.SlotID)
}

func TestClosestReportsDateWideAvailability(t *testing.T) {
	closed := slot(1, "12:00")
	closed.IsClosed = true
	alsoClosed := slot(2, "12:30")
	alsoClosed.IsClosed = true

	c := NewCalculator(&fakeSlots{slots: []model.TimeSlot{closed, alsoClosed}}, &fakeSeated{})
	res, err := c.Closest(context.Background(), branchWith(testPolicy()), day, at("12:00"))
	require.NoError(t, err)
	require.NotNil(t, res.Slot)
	assert.False(t, res.HasAvailability)
}

func TestClosestNoSlots(t *testing.T) {
	c := NewCalculator(&fakeSlots{}, &fakeSeated{})
	res, err := c.Closest(context.Background(), branchWith(testPolicy()), day, at("12:00"))
	require.NoError(t, err)
	assert.Nil(t, res.Slot)
	assert.False(t, res.HasAvailability)
}
