package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/handler"
	"github.com/sepehrdad/table-reservation/internal/middleware"
)

// RegisterOwner registers RESTAURANT-scoped endpoints under /v1/owner.
// All routes require a valid JWT and the RESTAURANT role; branch ownership
// is enforced inside the handlers.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("RESTAURANT"),
	)

	// ---- Restaurant ----
	g.POST("/restaurant", o.CreateRestaurant)
	g.GET("/restaurant", o.MyRestaurant)
	g.PUT("/restaurant", o.UpdateRestaurant)

	// ---- Branches ----
	g.POST("/branches", o.CreateBranch)
	g.GET("/branches", o.ListBranches)
	g.GET("/branches/:branchID", o.GetBranch)
	g.PUT("/branches/:branchID/policy", o.UpdateBranchPolicy)

	// ---- Slot administration ----
	g.POST("/branches/:branchID/slots/generate", o.GenerateSlots)
	g.GET("/branches/:branchID/slots", o.ListSlots)
	g.PATCH("/branches/:branchID/slots/:slotID/close", o.CloseSlot)
	g.PATCH("/branches/:branchID/slots/:slotID/reopen", o.ReopenSlot)
	g.PATCH("/branches/:branchID/slots/:slotID/overrides", o.SetSlotOverrides)

	// ---- Front desk ----
	g.POST("/branches/:branchID/bookings", o.CreateGuestBooking)
	g.GET("/branches/:branchID/bookings", o.ListBranchBookings)
	g.PATCH("/bookings/:bookingID/arrive", o.MarkArrived)
	g.PATCH("/bookings/:bookingID/complete", o.MarkCompleted)
	g.DELETE("/bookings/:bookingID", o.CancelBooking)
}
