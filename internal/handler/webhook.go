package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/service"
)

const maxWebhookBody = 65536

// SettlementHandler reacts to gateway settlement events for pending holds.
type SettlementHandler interface {
	CommitHold(ctx context.Context, paymentRef string) (*model.Reservation, error)
	DiscardHold(ctx context.Context, paymentRef string) (*model.Reservation, error)
}

// WebhookHandler receives Stripe events.  A succeeded payment intent
// commits its pending hold, so a booking is recorded even when the
// client never calls confirm; failed or canceled intents discard the
// hold.
type WebhookHandler struct {
	Secret   string
	Bookings SettlementHandler
	Log      *slog.Logger
}

// Stripe handles POST /v1/webhooks/stripe.  It answers 400 when the
// signature does not verify and 500 when the event should be retried;
// everything else is acknowledged with 204.
func (h *WebhookHandler) Stripe(c echo.Context) error {
	log := h.Log
	if log == nil {
		log = slog.Default()
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	event, err := webhook.ConstructEventWithOptions(payload, c.Request().Header.Get("Stripe-Signature"), h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Warn("stripe webhook signature rejected", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
	default:
		return c.NoContent(http.StatusNoContent)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil || pi.ID == "" {
		log.Warn("stripe webhook with unreadable payment intent", "event", event.ID)
		return c.NoContent(http.StatusNoContent)
	}
	ctx := c.Request().Context()
	log = log.With("event", event.ID, "type", string(event.Type), "payment_ref", pi.ID)

	if event.Type == "payment_intent.succeeded" {
		res, err := h.Bookings.CommitHold(ctx, pi.ID)
		if err != nil {
			return h.settlementFailed(c, log, err)
		}
		log.Info("hold committed from webhook", "reservation_id", res.ID)
		return c.NoContent(http.StatusNoContent)
	}

	if _, err := h.Bookings.DiscardHold(ctx, pi.ID); err != nil {
		return h.settlementFailed(c, log, err)
	}
	log.Info("hold discarded from webhook")
	return c.NoContent(http.StatusNoContent)
}

// settlementFailed decides whether the gateway should redeliver.
// Transient failures and lost races are retried, since a retry either
// commits or reports a final outcome.  A final failure that carries a
// captured amount is logged with its refund details; anything else is
// ignored.
func (h *WebhookHandler) settlementFailed(c echo.Context, log *slog.Logger, err error) error {
	switch service.KindOf(err) {
	case service.KindStorageUnavailable, service.KindPaymentGatewayError, service.KindPaymentNotSettled, service.KindCommitConflict:
		log.Error("webhook processing failed, requesting redelivery", "error", err)
		return c.NoContent(http.StatusInternalServerError)
	}
	var se *service.Error
	switch {
	case errors.As(err, &se) && se.PaymentRef != "" && se.AmountCents > 0:
		log.Error("captured payment could not be booked, refund required",
			"error", err, "refund_ref", se.PaymentRef, "refund_amount_cents", se.AmountCents)
	case service.KindOf(err) == service.KindNotFound, service.KindOf(err) == service.KindInvalidStateTransition:
		log.Info("webhook ignored", "reason", err.Error())
	default:
		log.Error("webhook processing failed", "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
