package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus exposition handler

	"github.com/iliyamo/hostel-booking/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: liveness, readiness and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	// Liveness only proves the process answers; readiness also checks MySQL.
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers unauthenticated browse endpoints.  The room
// listing is wrapped by the response cache; owners purge it on writes.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/hostels/:id/rooms", p.HostelRooms, cache)
}

// RegisterWebhooks registers gateway callbacks.  They authenticate by
// signature, not by JWT.
func RegisterWebhooks(e *echo.Echo, w *handler.WebhookHandler) {
	e.POST("/v1/webhooks/stripe", w.Stripe)
}

// RegisterDev registers local development helpers.  It must only be
// called when the in-memory payment gateway is active.
func RegisterDev(e *echo.Echo, d *handler.DevHandler) {
	e.POST("/v1/dev/payments/:ref/settle", d.SettlePayment)
}
