package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehrdad/table-reservation/internal/model"
)

// fakeSlotWriter emulates the unique-key insert: a slot whose start time
// was already stored does not count again.
type fakeSlotWriter struct {
	seen map[time.Time]bool
}

func newFakeSlotWriter() *fakeSlotWriter {
	return &fakeSlotWriter{seen: map[time.Time]bool{}}
}

func (w *fakeSlotWriter) InsertIfAbsent(_ context.Context, _ uint64, slots []model.TimeSlot) (int64, error) {
	var created int64
	for _, s := range slots {
		if !w.seen[s.StartsAt] {
			w.seen[s.StartsAt] = true
			created++
		}
	}
	return created, nil
}

func validPolicy() model.BookingPolicy {
	return model.BookingPolicy{
		OpenTime:               "12:00",
		CloseTime:              "23:00",
		SlotIntervalMin:        30,
		ReservationDurationMin: 90,
		MaxSeatsPerSlot:        40,
		MaxTablesPerSlot:       10,
	}
}

func TestValidatePolicy(t *testing.T) {
	require.NoError(t, ValidatePolicy(validPolicy()))

	cases := map[string]func(*model.BookingPolicy){
		"open after close":           func(p *model.BookingPolicy) { p.OpenTime = "23:30" },
		"open equals close":          func(p *model.BookingPolicy) { p.OpenTime = "23:00" },
		"garbage open time":          func(p *model.BookingPolicy) { p.OpenTime = "noon" },
		"zero interval":              func(p *model.BookingPolicy) { p.SlotIntervalMin = 0 },
		"duration shorter than slot": func(p *model.BookingPolicy) { p.ReservationDurationMin = 15 },
		"zero seat cap":              func(p *model.BookingPolicy) { p.MaxSeatsPerSlot = 0 },
		"negative table cap":         func(p *model.BookingPolicy) { p.MaxTablesPerSlot = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validPolicy()
			mutate(&p)
			err := ValidatePolicy(p)
			require.ErrorIs(t, err, ErrInvalidPolicy)
		})
	}
}

func TestMaterialize(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	slots := Materialize(7, validPolicy(), date)

	// 12:00 through 22:30 at 30 min steps
	require.Len(t, slots, 22)
	assert.Equal(t, date.Add(12*time.Hour), slots[0].StartsAt)
	assert.Equal(t, date.Add(12*time.Hour+30*time.Minute), slots[0].EndsAt)
	last := slots[len(slots)-1]
	assert.Equal(t, date.Add(22*time.Hour+30*time.Minute), last.StartsAt)
	assert.Equal(t, date.Add(23*time.Hour), last.EndsAt)

	for _, s := range slots {
		assert.Equal(t, uint64(7), s.BranchID)
		assert.Equal(t, date, s.SlotDate)
		assert.Equal(t, 30*time.Minute, s.EndsAt.Sub(s.StartsAt))
	}
}

func TestMaterializeLastSlotMustFitBeforeClose(t *testing.T) {
	p := validPolicy()
	p.OpenTime = "10:00"
	p.CloseTime = "11:45"
	p.SlotIntervalMin = 30
	p.ReservationDurationMin = 30

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	slots := Materialize(1, p, date)

	// 10:00, 10:30, 11:00; an 11:30 slot would end past 11:45
	require.Len(t, slots, 3)
	assert.Equal(t, date.Add(11*time.Hour), slots[2].StartsAt)
}

func TestGenerateIsIdempotent(t *testing.T) {
	w := newFakeSlotWriter()
	g := NewGenerator(w)
	branch := &model.Branch{ID: 3, Policy: validPolicy()}
	from := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	created, err := g.Generate(context.Background(), branch, from, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7*22), created)

	again, err := g.Generate(context.Background(), branch, from, 7)
	require.NoError(t, err)
	assert.Zero(t, again)

	// an overlapping run only adds the genuinely new dates
	extended, err := g.Generate(context.Background(), branch, from, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3*22), extended)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	g := NewGenerator(newFakeSlotWriter())
	from := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	bad := &model.Branch{ID: 1, Policy: validPolicy()}
	bad.Policy.SlotIntervalMin = 0
	_, err := g.Generate(context.Background(), bad, from, 7)
	require.ErrorIs(t, err, ErrInvalidPolicy)

	ok := &model.Branch{ID: 1, Policy: validPolicy()}
	_, err = g.Generate(context.Background(), ok, from, 0)
	require.ErrorIs(t, err, ErrInvalidPolicy)
}
