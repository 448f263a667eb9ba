package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
)

const dbTimeout = 5 * time.Second

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter; zero is rejected along with
// anything non-numeric.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// dateParam parses a YYYY-MM-DD query parameter as a UTC calendar date.
func dateParam(raw string) (time.Time, bool) {
	d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// bookingResp is the JSON shape of a booking in write-path responses.
type bookingResp struct {
	ID        uint64     `json:"id"`
	UserID    *uint64    `json:"user_id,omitempty"`
	GuestName *string    `json:"guest_name,omitempty"`
	BranchID  uint64     `json:"branch_id"`
	SlotID    uint64     `json:"slot_id"`
	PartySize int        `json:"party_size"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ArrivedAt *time.Time `json:"arrived_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:        b.ID,
		UserID:    b.UserID,
		GuestName: b.GuestName,
		BranchID:  b.BranchID,
		SlotID:    b.SlotID,
		PartySize: b.PartySize,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		ArrivedAt: b.ArrivedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// bookingDetailResp joins a booking with slot times and branch name for
// list endpoints.
type bookingDetailResp struct {
	bookingResp
	SlotStart  time.Time `json:"slot_start"`
	SlotEnd    time.Time `json:"slot_end"`
	BranchName string    `json:"branch_name"`
}

func toDetailResps(details []repository.BookingDetail) []bookingDetailResp {
	out := make([]bookingDetailResp, 0, len(details))
	for i := range details {
		out = append(out, bookingDetailResp{
			bookingResp: toBookingResp(&details[i].Booking),
			SlotStart:   details[i].SlotStart,
			SlotEnd:     details[i].SlotEnd,
			BranchName:  details[i].BranchName,
		})
	}
	return out
}
