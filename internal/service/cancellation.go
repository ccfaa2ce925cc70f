package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/hostel-booking/internal/metrics"
	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/payment"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// Canceller ends reservations.  Cancelling a completed reservation
// returns its beds to the room in the same transaction that marks it
// cancelled.  A pending hold is discarded only after its payment intent
// has been canceled at the gateway.
type Canceller struct {
	store   Store
	gateway payment.Gateway
	timeout time.Duration
	notify  *Dispatcher
	log     *slog.Logger
}

// NewCanceller builds a Canceller.  notify may be nil; gatewayTimeout
// bounds each intent cancellation.
func NewCanceller(store Store, gateway payment.Gateway, notify *Dispatcher, gatewayTimeout time.Duration, log *slog.Logger) *Canceller {
	if store == nil || gateway == nil {
		panic("nil dependency passed to NewCanceller")
	}
	if gatewayTimeout <= 0 {
		gatewayTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Canceller{store: store, gateway: gateway, timeout: gatewayTimeout, notify: notify, log: log}
}

// Cancel cancels reservation id on behalf of actor.  The traveler who
// booked, the owner of the hostel and admins may cancel.  Completed
// reservations become cancelled and release their beds; pending holds
// become discarded.  Cancelling twice fails with InvalidStateTransition.
func (c *Canceller) Cancel(ctx context.Context, id uint64, actor model.Actor) (*model.Reservation, error) {
	res, err := c.cancel(ctx, id, actor)
	switch {
	case err == nil:
		metrics.Booking().Cancellation(string(res.Status))
	default:
		metrics.Booking().Cancellation("rejected")
	}
	return res, err
}

func (c *Canceller) cancel(ctx context.Context, id uint64, actor model.Actor) (*model.Reservation, error) {
	res, err := c.store.GetReservation(ctx, id)
	if err != nil {
		return nil, storageError(err, "reservation")
	}
	hostel, err := c.store.GetHostel(ctx, res.HostelID)
	if err != nil && !errors.Is(err, repository.ErrHostelNotFound) {
		return nil, storageError(err, "hostel")
	}
	if !mayCancel(actor, res, hostel) {
		return nil, newError(KindForbidden, "not allowed to cancel this reservation", nil)
	}
	if res.Status == model.StatusPending {
		out, err := releaseHold(ctx, c.store, c.gateway, c.timeout, res)
		if err != nil {
			return nil, err
		}
		c.log.InfoContext(ctx, "payment hold released",
			"reservation_id", out.ID, "payment_ref", out.PaymentRef, "actor_id", actor.UserID, "actor_role", actor.Role)
		return out, nil
	}

	var out *model.Reservation
	var from model.ReservationStatus
	err = c.store.InTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.LockReservation(ctx, id)
		if err != nil {
			return err
		}
		next, ok := cur.Status.CancelTarget()
		if !ok {
			return invalidTransition(cur.Status, model.StatusCancelled)
		}
		if err := tx.UpdateReservationStatus(ctx, cur.ID, cur.Status, next); err != nil {
			return err
		}
		if cur.Status.HoldsInventory() {
			if err := tx.IncrementAvailableBeds(ctx, cur.RoomID, cur.SeatsBooked); err != nil {
				return err
			}
		}
		from = cur.Status
		cur.Status = next
		out = cur
		return nil
	})
	if err != nil {
		return nil, commitError(err)
	}

	c.log.InfoContext(ctx, "reservation cancelled",
		"reservation_id", out.ID, "from", from, "to", out.Status, "actor_id", actor.UserID, "actor_role", actor.Role)
	if from == model.StatusCompleted {
		notes := []Notification{{UserID: out.UserID, Message: "Your booking has been canceled.",
			Category: CategoryBooking, ReservationID: out.ID, HostelID: out.HostelID}}
		if hostel != nil {
			notes = append(notes, Notification{UserID: hostel.OwnerID,
				Message:  fmt.Sprintf("Booking for %s was canceled.", hostel.Name),
				Category: CategoryAdmin, ReservationID: out.ID, HostelID: out.HostelID})
		}
		c.notify.Dispatch(notes...)
	}
	return out, nil
}

// DiscardHold discards the pending hold for paymentRef, e.g. after the
// gateway reports the payment failed.  The intent is canceled first so a
// retried payment cannot succeed against a discarded hold.  Discarding an
// already discarded hold is a no-op.
func (c *Canceller) DiscardHold(ctx context.Context, paymentRef string) (*model.Reservation, error) {
	hold, err := c.store.GetReservationByPaymentRef(ctx, paymentRef)
	if err != nil {
		return nil, storageError(err, "reservation")
	}
	return releaseHold(ctx, c.store, c.gateway, c.timeout, hold)
}

// releaseHold cancels the payment intent behind a hold and then marks the
// hold discarded.  When the payment was captured first the hold stays
// pending so the settlement can still be committed.
func releaseHold(ctx context.Context, store Store, gw payment.Gateway, timeout time.Duration, hold *model.Reservation) (*model.Reservation, error) {
	switch hold.Status {
	case model.StatusDiscarded:
		return hold, nil
	case model.StatusPending:
	default:
		return nil, invalidTransition(hold.Status, model.StatusDiscarded)
	}
	if err := cancelIntent(ctx, gw, timeout, hold.PaymentRef); err != nil {
		return nil, err
	}

	var out *model.Reservation
	err := store.InTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.LockReservation(ctx, hold.ID)
		if err != nil {
			return err
		}
		out = cur
		switch cur.Status {
		case model.StatusDiscarded:
			return nil
		case model.StatusPending:
		default:
			return invalidTransition(cur.Status, model.StatusDiscarded)
		}
		if err := tx.UpdateReservationStatus(ctx, cur.ID, cur.Status, model.StatusDiscarded); err != nil {
			return err
		}
		cur.Status = model.StatusDiscarded
		return nil
	})
	if err != nil {
		return nil, commitError(err)
	}
	return out, nil
}

// cancelIntent stops an unsettled payment.  An intent the gateway no
// longer knows counts as canceled.
func cancelIntent(ctx context.Context, gw payment.Gateway, timeout time.Duration, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	err := gw.CancelIntent(ctx, ref)
	metrics.Booking().Gateway("cancel_intent", outcomeOf(err), time.Since(start))
	switch {
	case err == nil, errors.Is(err, payment.ErrIntentNotFound):
		return nil
	case errors.Is(err, payment.ErrIntentSettled):
		return newError(KindInvalidStateTransition, "payment already captured, the booking must be confirmed", err)
	}
	return newError(KindPaymentGatewayError, "failed to cancel payment intent", err)
}

func mayCancel(actor model.Actor, res *model.Reservation, hostel *model.Hostel) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.UserID != 0 && actor.UserID == res.UserID:
		return true
	case hostel != nil && actor.Role == model.RoleOwner && actor.UserID == hostel.OwnerID:
		return true
	}
	return false
}
