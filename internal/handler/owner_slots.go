package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
	"github.com/sepehrdad/table-reservation/internal/schedule"
)

type generateSlotsReq struct {
	FromDate string `json:"from_date"` // YYYY-MM-DD, defaults to today
	Days     int    `json:"days"`      // defaults to the configured horizon
}

type slotResp struct {
	ID        uint64    `json:"id"`
	BranchID  uint64    `json:"branch_id"`
	SlotDate  string    `json:"slot_date"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	MaxSeats  *int      `json:"max_seats,omitempty"`
	MaxTables *int      `json:"max_tables,omitempty"`
	IsClosed  bool      `json:"is_closed"`
}

func toSlotResp(s *model.TimeSlot) slotResp {
	return slotResp{
		ID:        s.ID,
		BranchID:  s.BranchID,
		SlotDate:  s.SlotDate.Format("2006-01-02"),
		StartsAt:  s.StartsAt,
		EndsAt:    s.EndsAt,
		MaxSeats:  s.MaxSeats,
		MaxTables: s.MaxTables,
		IsClosed:  s.IsClosed,
	}
}

// GenerateSlots materializes the branch's slot calendar forward from a
// date.  The insert skips rows that already exist, so re-running over an
// overlapping window is safe and reports only the newly created count.
func (h *OwnerHandler) GenerateSlots(c echo.Context) error {
	branchID, ok := pathID(c, "branchID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	var req generateSlotsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	if req.FromDate != "" {
		d, ok := dateParam(req.FromDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from_date must be YYYY-MM-DD"})
		}
		from = d
	}
	days := req.Days
	if days == 0 {
		days = h.defaultHorizonDays
	}

	// generation can cover a month of slots, give it more room than a
	// single-row call
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	branch, err := h.ownedBranch(ctx, c, branchID)
	if err != nil {
		return h.branchErr(c, err)
	}

	created, err := h.Generator.Generate(ctx, branch, from, days)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidPolicy) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"branch_id":     branch.ID,
		"from_date":     from.Format("2006-01-02"),
		"days":          days,
		"slots_created": created,
	})
}

// ListSlots returns the raw slot rows of a branch on one date, overrides
// and closed flags included.  Owners use this view for administration;
// the public availability endpoint serves the derived capacity instead.
func (h *OwnerHandler) ListSlots(c echo.Context) error {
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
	slots, err := h.Slots.ListByBranchDate(ctx, branch.ID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]slotResp, 0, len(slots))
	for i := range slots {
		out = append(out, toSlotResp(&slots[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// CloseSlot blacks out a slot.  Existing bookings on it are untouched;
// the flag only stops new ones.
func (h *OwnerHandler) CloseSlot(c echo.Context) error {
	return h.setSlotClosed(c, true)
}

// ReopenSlot clears the blackout flag.
func (h *OwnerHandler) ReopenSlot(c echo.Context) error {
	return h.setSlotClosed(c, false)
}

func (h *OwnerHandler) setSlotClosed(c echo.Context, closed bool) error {
	branchID, ok := pathID(c, "branchID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	slotID, ok := pathID(c, "slotID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	branch, err := h.ownedBranch(ctx, c, branchID)
	if err != nil {
		return h.branchErr(c, err)
	}
	if err := h.Slots.SetClosed(ctx, slotID, branch.ID, closed); err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slot_id": slotID, "is_closed": closed})
}

type slotOverridesReq struct {
	MaxSeats  *int `json:"max_seats"`
	MaxTables *int `json:"max_tables"`
}

// SetSlotOverrides sets or clears the per-slot capacity overrides.  A null
// field falls back to the branch policy default.
func (h *OwnerHandler) SetSlotOverrides(c echo.Context) error {
	branchID, ok := pathID(c, "branchID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	slotID, ok := pathID(c, "slotID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	var req slotOverridesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if (req.MaxSeats != nil && *req.MaxSeats <= 0) || (req.MaxTables != nil && *req.MaxTables <= 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "overrides must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	branch, err := h.ownedBranch(ctx, c, branchID)
	if err != nil {
		return h.branchErr(c, err)
	}
	if err := h.Slots.SetOverrides(ctx, slotID, branch.ID, req.MaxSeats, req.MaxTables); err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	slot, err := h.Slots.GetByID(ctx, slotID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toSlotResp(slot))
}
