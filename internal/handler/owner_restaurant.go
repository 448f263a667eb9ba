package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/booking"
	"github.com/sepehrdad/table-reservation/internal/model"
	"github.com/sepehrdad/table-reservation/internal/repository"
	"github.com/sepehrdad/table-reservation/internal/schedule"
)

// OwnerHandler serves every RESTAURANT-role endpoint: restaurant and
// branch management, slot administration and the front-desk booking
// operations.
type OwnerHandler struct {
	Restaurants *repository.RestaurantRepo
	Branches    *repository.BranchRepo
	Slots       *repository.SlotRepo
	Bookings    *repository.BookingRepo
	Generator   *schedule.Generator
	Manager     *booking.Manager

	// defaultHorizonDays is the window used by slot generation when the
	// request does not name one.
	defaultHorizonDays int
}

func NewOwnerHandler(restaurants *repository.RestaurantRepo, branches *repository.BranchRepo, slots *repository.SlotRepo, bookings *repository.BookingRepo, gen *schedule.Generator, mgr *booking.Manager, horizonDays int) *OwnerHandler {
	if restaurants == nil || branches == nil || slots == nil || bookings == nil || gen == nil || mgr == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &OwnerHandler{
		Restaurants:        restaurants,
		Branches:           branches,
		Slots:              slots,
		Bookings:           bookings,
		Generator:          gen,
		Manager:            mgr,
		defaultHorizonDays: horizonDays,
	}
}

// restaurantFor loads the caller's restaurant row.  Every owner endpoint
// scopes itself through this lookup, so a RESTAURANT user can only ever
// touch resources under their own restaurant.
func (h *OwnerHandler) restaurantFor(ctx context.Context, c echo.Context) (*model.Restaurant, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, err
	}
	return h.Restaurants.GetByOwner(ctx, uid)
}

type restaurantReq struct {
	Name string `json:"name"`
}

type restaurantResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRestaurantResp(r *model.Restaurant) restaurantResp {
	return restaurantResp{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// CreateRestaurant registers the caller's restaurant.  One restaurant per
// owner account; a second attempt conflicts.
func (h *OwnerHandler) CreateRestaurant(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if _, err := h.Restaurants.GetByOwner(ctx, uid); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "restaurant already exists"})
	} else if !errors.Is(err, repository.ErrRestaurantNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	rest := &model.Restaurant{OwnerUserID: uid, Name: name}
	if err := h.Restaurants.Create(ctx, rest); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create restaurant failed"})
	}
	return c.JSON(http.StatusCreated, toRestaurantResp(rest))
}

// MyRestaurant returns the caller's restaurant.
func (h *OwnerHandler) MyRestaurant(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rest, err := h.restaurantFor(ctx, c)
	if err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toRestaurantResp(rest))
}

// UpdateRestaurant renames the caller's restaurant.
func (h *OwnerHandler) UpdateRestaurant(c echo.Context) error {
	var req restaurantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
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
	if err := h.Restaurants.UpdateName(ctx, rest.ID, rest.OwnerUserID, name); err != nil {
		if errors.Is(err, repository.ErrRestaurantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	rest.Name = name
	return c.JSON(http.StatusOK, toRestaurantResp(rest))
}
