package router

import (
	"github.com/labstack/echo/v4"

	"github.com/inovix/booking-api/internal/handler"
	"github.com/inovix/booking-api/internal/middleware"
	"github.com/inovix/booking-api/internal/model"
)

// RegisterClient registers the order placement and payment endpoints
// for authenticated users.  Admins are allowed through as well so they
// can exercise the flow without a second account.
func RegisterClient(e *echo.Echo, o *handler.OrderHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/api/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClient, model.RoleAdmin),
	)
	g.POST("/orders", o.Create)
	g.GET("/my-orders", o.MyOrders)
	g.POST("/payments/checkout", p.CreateCheckout)
}

// RegisterPaymentCallback registers the gateway's server-to-server
// notification endpoint.  It carries no JWT: authenticity comes from
// the status lookup against the gateway inside the handler.
func RegisterPaymentCallback(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/api/v1/payments/notification", p.HandleNotification)
}
