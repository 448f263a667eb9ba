package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityRoundTrip(t *testing.T) {
	for _, ident := range []Identity{
		{Kind: KindDiner, ID: 1},
		{Kind: KindRestaurant, ID: 42},
	} {
		parsed, err := ParseIdentity(ident.String())
		require.NoError(t, err)
		assert.Equal(t, ident, parsed)
	}
}

func TestParseIdentityRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "diner", "admin:3", "diner:abc", "diner:0", "restaurant:-1"} {
		_, err := ParseIdentity(s)
		assert.Error(t, err, s)
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusArrived))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusCompleted))

	assert.True(t, StatusArrived.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusArrived.CanTransitionTo(StatusCancelled))

	for _, terminal := range []BookingStatus{StatusCancelled, StatusCompleted} {
		for _, next := range []BookingStatus{StatusConfirmed, StatusCancelled, StatusArrived, StatusCompleted} {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestPolicyWallClock(t *testing.T) {
	p := BookingPolicy{OpenTime: "12:00", CloseTime: "23:30"}

	open, err := p.OpenMinutes()
	require.NoError(t, err)
	assert.Equal(t, 12*60, open)

	closeMin, err := p.CloseMinutes()
	require.NoError(t, err)
	assert.Equal(t, 23*60+30, closeMin)

	p.OpenTime = "25:00"
	_, err = p.OpenMinutes()
	assert.Error(t, err)
}

func TestSlotCapOverrides(t *testing.T) {
	p := BookingPolicy{MaxSeatsPerSlot: 40, MaxTablesPerSlot: 10}
	s := TimeSlot{}
	assert.Equal(t, 40, s.SeatCap(p))
	assert.Equal(t, 10, s.TableCap(p))

	twelve := 12
	three := 3
	s.MaxSeats = &twelve
	s.MaxTables = &three
	assert.Equal(t, 12, s.SeatCap(p))
	assert.Equal(t, 3, s.TableCap(p))
}
