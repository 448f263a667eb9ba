package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/booking"
	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
)

type guestBookingReq struct {
	GuestName string `json:"guest_name"`
	SlotID    uint64 `json:"slot_id"`
	PartySize int    `json:"party_size"`
}

// CreateGuestBooking places a walk-in or phone booking on behalf of a
// guest.  It runs through the same capacity-checked transaction as diner
// bookings; the only difference is the identity attached to the row.
func (h *OwnerHandler) CreateGuestBooking(c echo.Context) error {
	branchID, ok := pathID(c, "branchID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	var req guestBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.GuestName)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_name required"})
	}
	if req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	staff, err := h.callerIdentity(ctx, c)
	if err != nil {
		return h.branchErr(c, err)
	}

	b, err := h.Manager.CreateGuest(ctx, staff, booking.CreateRequest{
		GuestName: &name,
		BranchID:  branchID,
		SlotID:    req.SlotID,
		PartySize: req.PartySize,
	})
	if err != nil {
		return bookingErr(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// MarkArrived moves a confirmed booking to ARRIVED when the party shows
// up.
func (h *OwnerHandler) MarkArrived(c echo.Context) error {
	return h.transition(c, h.Manager.MarkArrived)
}

// MarkCompleted closes out an arrived booking.
func (h *OwnerHandler) MarkCompleted(c echo.Context) error {
	return h.transition(c, h.Manager.MarkCompleted)
}

// CancelBooking lets the restaurant cancel any booking on its branches.
func (h *OwnerHandler) CancelBooking(c echo.Context) error {
	return h.transition(c, h.Manager.Cancel)
}

func (h *OwnerHandler) transition(c echo.Context, op func(context.Context, uint64, model.Identity) (*model.Booking, error)) error {
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	staff, err := h.callerIdentity(ctx, c)
	if err != nil {
		return h.branchErr(c, err)
	}

	b, err := op(ctx, bookingID, staff)
	if err != nil {
		return bookingErr(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// ListBranchBookings returns a branch's bookings for one date, newest
// first, with slot times joined in for the front-desk view.
func (h *OwnerHandler) ListBranchBookings(c echo.Context) error {
	branchID, ok := pathID(c, "branchID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	date, ok := dateParam(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	branch, err := h.ownedBranch(ctx, c, branchID)
	if err != nil {
		return h.branchErr(c, err)
	}
	details, err := h.Bookings.ListByBranchDate(ctx, branch.ID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toDetailResps(details))
}

// callerIdentity builds the restaurant identity of the authenticated
// owner.
func (h *OwnerHandler) callerIdentity(ctx context.Context, c echo.Context) (model.Identity, error) {
	rest, err := h.restaurantFor(ctx, c)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{Kind: model.KindRestaurant, ID: rest.ID}, nil
}

// bookingErr maps manager sentinels onto HTTP statuses.  Capacity and
// state conflicts are 409s the client is expected to handle by refreshing
// availability.
func bookingErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrInvalidParty):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrSlotClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is closed"})
	case errors.Is(err, booking.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity exceeded"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrRestaurantNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking operation failed"})
	}
}
