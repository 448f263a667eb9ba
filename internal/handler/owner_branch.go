package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
	"github.com/sepehrdad/table-reservation/internal/schedule"
)

type branchReq struct {
	Name   string              `json:"name"`
	Policy model.BookingPolicy `json:"policy"`
}

type branchResp struct {
	ID           uint64              `json:"id"`
	RestaurantID uint64              `json:"restaurant_id"`
	Name         string              `json:"name"`
	Policy       model.BookingPolicy `json:"policy"`
	IsActive     bool                `json:"is_active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toBranchResp(b *model.Branch) branchResp {
	return branchResp{
		ID:           b.ID,
		RestaurantID: b.RestaurantID,
		Name:         b.Name,
		Policy:       b.Policy,
		IsActive:     b.IsActive,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// CreateBranch adds a branch under the caller's restaurant.  The booking
// policy is validated up front with the same rules the slot generator
// enforces, so a branch can never be saved in a state that would make
// generation fail later.
func (h *OwnerHandler) CreateBranch(c echo.Context) error {
	var req branchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if err := schedule.ValidatePolicy(req.Policy); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rest, err := h.restaurantFor(ctx, c)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	branch := &model.Branch{
		RestaurantID: rest.ID,
		Name:         name,
		Policy:       req.Policy,
		IsActive:     true,
	}
	if err := h.Branches.Create(ctx, branch); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create branch failed"})
	}
	return c.JSON(http.StatusCreated, toBranchResp(branch))
}

// ListBranches returns all branches of the caller's restaurant.
func (h *OwnerHandler) ListBranches(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rest, err := h.restaurantFor(ctx, c)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	branches, err := h.Branches.ListByRestaurant(ctx, rest.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]branchResp, 0, len(branches))
	for _, b := range branches {
		out = append(out, toBranchResp(b))
	}
	return c.JSON(http.StatusOK, out)
}

// GetBranch returns one branch, scoped to the caller's restaurant.
func (h *OwnerHandler) GetBranch(c echo.Context) error {
	branchID, ok := pathID(c, "branchID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	branch, err := h.ownedBranch(ctx, c, branchID)
	if err != nil {
		return h.branchErr(c, err)
	}
	return c.JSON(http.StatusOK, toBranchResp(branch))
}

// UpdateBranchPolicy replaces a branch's booking policy.  Existing slots
// keep their materialized times and caps; only future generation and the
// duration used in availability math pick up the new values.
func (h *OwnerHandler) UpdateBranchPolicy(c echo.Context) error {
	branchID, ok := pathID(c, "branchID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}
	var policy model.BookingPolicy
	if err := c.Bind(&policy); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := schedule.ValidatePolicy(policy); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	branch, err := h.ownedBranch(ctx, c, branchID)
	if err != nil {
		return h.branchErr(c, err)
	}
	if err := h.Branches.UpdatePolicy(ctx, branch.ID, branch.RestaurantID, policy); err != nil {
		if errors.Is(err, repository.ErrBranchNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	branch.Policy = policy
	return c.JSON(http.StatusOK, toBranchResp(branch))
}

// ownedBranch resolves the caller's restaurant and loads the branch under
// it.  A branch belonging to another restaurant surfaces as not found.
func (h *OwnerHandler) ownedBranch(ctx context.Context, c echo.Context, branchID uint64) (*model.Branch, error) {
	rest, err := h.restaurantFor(ctx, c)
	if err != nil {
		return nil, err
	}
	return h.Branches.GetByIDAndRestaurant(ctx, branchID, rest.ID)
}

func (h *OwnerHandler) branchErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrRestaurantNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
	case errors.Is(err, repository.ErrBranchNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "branch not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
}
