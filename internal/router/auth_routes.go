package router

import (
	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/handler"
	"github.com/inovix/booking-api/internal/middleware"
	"github.com/inovix/booking-api/internal/model"
)

// RegisterAuth registers the session endpoints.  Register, login and
// refresh are open; logout and /me require a valid access token so
// the all-sessions logout variant knows who is calling.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/api/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleClient),
	)
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}
