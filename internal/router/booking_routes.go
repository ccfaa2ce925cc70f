package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/handler"
	"github.com/iliyamo/hostel-booking/internal/middleware"
	"github.com/iliyamo/hostel-booking/internal/model"
)

// RegisterBookings registers the traveler booking flow under
// /v1/bookings.  Every route requires a valid JWT; quoting, paying and
// confirming are limited to customers and pass through the rate limiter.
// Cancellation and reads are open to owners and admins too, with the
// finer checks done by the handler.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	auth := middleware.JWTAuth(jwtSecret)
	anyRole := middleware.RequireRole(model.RoleCustomer, model.RoleOwner, model.RoleAdmin)
	customer := middleware.RequireRole(model.RoleCustomer)

	g := e.Group("/v1/bookings", auth)
	g.POST("/quote", h.Quote, customer, limiter)
	g.POST("/payment-intent", h.PaymentIntent, customer, limiter)
	g.POST("/confirm", h.Confirm, customer, limiter)
	g.GET("/:id", h.GetBooking, anyRole)
	g.DELETE("/:id", h.Cancel, anyRole, limiter)

	e.GET("/v1/my-bookings", h.MyBookings, auth, customer)
	e.GET("/v1/hostels/:id/eligible-bookings", h.EligibleBookings, auth, customer)
}
