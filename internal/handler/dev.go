package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// FakeSettler settles in-memory payments.
type FakeSettler interface {
	Settle(reference string) bool
}

// DevHandler exposes helpers that only exist with the in-memory payment
// gateway, so the booking flow can be exercised locally end to end.
type DevHandler struct {
	Payments FakeSettler
}

// SettlePayment handles POST /v1/dev/payments/:ref/settle.
func (h *DevHandler) SettlePayment(c echo.Context) error {
	ref := c.Param("ref")
	if !h.Payments.Settle(ref) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payment_ref": ref, "status": "succeeded"})
}
