// Package router wires handlers onto the Echo instance.  Routes are
// grouped by access level: public reads, auth endpoints, client
// endpoints and admin endpoints, plus the gateway callback which sits
// outside all auth.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/handler"
)

// RegisterRoutes registers unauthenticated infrastructure routes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated catalog reads under
// /api/v1.  Guests can browse services and slots before registering.
// Middleware passed here applies to the public group only; the
// response cache belongs here and never on authenticated routes,
// whose bodies are per-user.
func RegisterPublic(e *echo.Echo, s *handler.ServiceHandler, sl *handler.SlotHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api/v1", mw...)
	g.GET("/services", s.List)
	g.GET("/services/:id", s.Get)
	g.GET("/slots", sl.List)
	g.GET("/slots/available", sl.ListAvailable)
	g.GET("/slots/:id", sl.Get)
}
