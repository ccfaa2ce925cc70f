package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/handler"    // owner handlers
	"github.com/iliyamo/hostel-booking/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/hostel-booking/internal/model"
)

// RegisterOwner registers OWNER-scoped endpoints under /v1/owner.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
	)

	// ---- Hostels ----
	g.POST("/hostels", o.CreateHostel)

	// ---- Rooms ----
	// Bed counts are not writable here; only the booking flow moves them.
	g.POST("/rooms", o.CreateRoom)
	g.PATCH("/rooms/:id/price", o.UpdateRoomPrice)

	// ---- Bookings ----
	g.GET("/bookings", o.OwnerBookings)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/bookings", a.ListBookings)

	// ---- Hostel approval ----
	g.GET("/hostels/pending", a.PendingHostels)
	g.PATCH("/hostels/:id/approve", a.ApproveHostel)
	g.PATCH("/hostels/:id/reject", a.RejectHostel)
}
