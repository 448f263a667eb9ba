// Package router wires handlers onto Echo routes.  Public browse, diner
// and owner surfaces are registered separately so each can carry its own
// middleware chain.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/table-reservation/internal/handler"
	"github.com/sepehrdad/table-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication at all.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints.  Register, login and the
// refresh variants are open; logout and /me require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the guest browse surface.  Availability is the
// hot read path: it sits behind the rate limiter and the short-TTL
// response cache when those are enabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, limit, cache echo.MiddlewareFunc) {
	e.GET("/v1/restaurants", p.ListRestaurants)
	e.GET("/v1/restaurants/:restaurantID/branches", p.ListBranches)
	e.GET("/v1/branches/:branchID/availability", p.Availability, limit, cache)
}

// RegisterWS registers the realtime feed endpoint.  Authentication happens
// inside the handler against the session cookie, not via JWT middleware:
// browsers cannot set an Authorization header on a websocket handshake.
func RegisterWS(e *echo.Echo, ws *handler.WSHandler) {
	e.GET("/ws", ws.Serve)
}
