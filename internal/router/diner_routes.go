package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/handler"
	"github.com/sepehrdad/table-reservation/internal/middleware"
)

// RegisterDiner registers DINER-scoped endpoints under /v1.  Diners place
// bookings against slots they found through the public availability
// endpoint, cancel their own bookings and list their history.
func RegisterDiner(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("DINER"),
	)
	g.POST("/bookings", h.Create)
	g.DELETE("/bookings/:bookingID", h.Cancel)
	g.GET("/my-bookings", h.List)
}
