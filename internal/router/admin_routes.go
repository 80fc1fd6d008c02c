package router

import (
	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/handler"
	"github.com/inovix/booking-api/internal/middleware"
	"github.com/inovix/booking-api/internal/model"
)

// RegisterAdmin registers catalog, slot and order management under
// /api/v1, restricted to the admin role.
func RegisterAdmin(e *echo.Echo, s *handler.ServiceHandler, sl *handler.SlotHandler, o *handler.OrderHandler, jwtSecret string) {
	g := e.Group("/api/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.POST("/services", s.Create)
	g.PUT("/services/:id", s.Update)
	g.DELETE("/services/:id", s.Delete)

	g.POST("/slots", sl.Create)
	g.PUT("/slots/:id", sl.Update)
	g.DELETE("/slots/:id", sl.Delete)

	g.GET("/orders", o.AdminList)
	g.GET("/orders/:id", o.AdminGet)
	g.PUT("/orders/:id", o.AdminUpdate)
}
