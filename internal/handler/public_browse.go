package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/availability"
	"github.com/sepehrdad/table-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface: restaurant and
// branch listings plus per-date availability.
type PublicHandler struct {
	Restaurants *repository.RestaurantRepo
	Branches    *repository.BranchRepo
	Calc        *availability.Calculator
}

func NewPublicHandler(restaurants *repository.RestaurantRepo, branches *repository.BranchRepo, calc *availability.Calculator) *PublicHandler {
	if restaurants == nil || branches == nil || calc == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Restaurants: restaurants, Branches: branches, Calc: calc}
}

// ListRestaurants returns every restaurant on the platform.
func (h *PublicHandler) ListRestaurants(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rests, err := h.Restaurants.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]restaurantResp, 0, len(rests))
	for _, r := range rests {
		out = append(out, toRestaurantResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

// ListBranches returns the active branches of one restaurant, booking
// policy included so clients know opening hours before asking for
// availability.
func (h *PublicHandler) ListBranches(c echo.Context) error {
	restID, ok := pathID(c, "restaurantID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Restaurants.GetByID(ctx, restID); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	branches, err := h.Branches.ListByRestaurant(ctx, restID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]branchResp, 0, len(branches))
	for _, b := range branches {
		if b.IsActive {
			out = append(out, toBranchResp(b))
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Availability returns the derived per-slot capacity of a branch for one
// date.  Without a time parameter the full day is returned; with one, the
// response narrows to the slot closest to the requested time plus a flag
// saying whether anything on the date is still bookable.
func (h *PublicHandler) Availability(c echo.Context) error {
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

	branch, err := h.Branches.GetByID(ctx, branchID)
	if err != nil {
		if errors.Is(err, repository.ErrBranchNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !branch.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
	}

	if raw := c.QueryParam("time"); raw != "" {
		wall, err := time.Parse("15:04", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
		}
		requested := date.Add(time.Duration(wall.Hour())*time.Hour + time.Duration(wall.Minute())*time.Minute)
		res, err := h.Calc.Closest(ctx, branch, date, requested)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability failed"})
		}
		return c.JSON(http.StatusOK, res)
	}

	views, err := h.Calc.ForDate(ctx, branch, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"branch_id": branch.ID,
		"date":      date.Format("2006-01-02"),
		"slots":     views,
	})
}
