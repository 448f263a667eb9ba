package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/booking"
	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
)

// BookingHandler serves the diner-facing booking endpoints.
type BookingHandler struct {
	Manager  *booking.Manager
	Bookings *repository.BookingRepo
}

func NewBookingHandler(mgr *booking.Manager, bookings *repository.BookingRepo) *BookingHandler {
	if mgr == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Manager: mgr, Bookings: bookings}
}

type createBookingReq struct {
	BranchID  uint64 `json:"branch_id"`
	SlotID    uint64 `json:"slot_id"`
	PartySize int    `json:"party_size"`
}

// Create places a booking for the authenticated diner.  A 409 means the
// slot filled up or was closed between the availability read and this
// call; the client should refresh and pick again.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.BranchID == 0 || req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch_id and slot_id required"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Manager.Create(ctx, booking.CreateRequest{
		UserID:    &uid,
		BranchID:  req.BranchID,
		SlotID:    req.SlotID,
		PartySize: req.PartySize,
	})
	if err != nil {
		return bookingErr(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// Cancel cancels one of the diner's own bookings.  Bookings belonging to
// someone else surface as not found.
func (h *BookingHandler) Cancel(c echo.Context) error {
	bookingID, ok := pathID(c, "bookingID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Manager.Cancel(ctx, bookingID, model.Identity{Kind: model.KindDiner, ID: uid})
	if err != nil {
		return bookingErr(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// List returns the diner's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	details, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toDetailResps(details))
}
