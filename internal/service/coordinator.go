// Package service implements the booking flow on top of the repository
// layer: quoting, opening payments, committing paid reservations against
// room inventory, and cancelling them.  Every inventory change is made
// inside one Store transaction together with the reservation row it
// accounts for.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iliyamo/hostel-booking/internal/metrics"
	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/payment"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// Quote is the price and current availability of beds in a room.
type Quote struct {
	HostelID         uint64 `json:"hostel_id"`
	RoomID           uint64 `json:"room_id"`
	Seats            int    `json:"seats"`
	UnitPriceCents   int64  `json:"unit_price_cents"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	Currency         string `json:"currency"`
	AvailableBeds    int    `json:"available_beds"`
}

// PaymentRequest asks for a payment intent covering Seats beds.
type PaymentRequest struct {
	HostelID uint64
	RoomID   uint64
	UserID   uint64
	Seats    int
	CheckIn  time.Time
	CheckOut time.Time
}

// PaymentIntent is returned to the client so it can complete payment
// with the gateway SDK and later confirm with Reference.
type PaymentIntent struct {
	Reference     string    `json:"payment_ref"`
	ClientSecret  string    `json:"client_secret"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	ReservationID uint64    `json:"reservation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ConfirmRequest commits a reservation for a payment the client reports
// as completed.  AmountCents is the amount the client believes it paid;
// the gateway-reported amount wins when available.
type ConfirmRequest struct {
	PaymentRef  string
	HostelID    uint64
	RoomID      uint64
	UserID      uint64
	Seats       int
	CheckIn     time.Time
	CheckOut    time.Time
	AmountCents int64
}

// CoordinatorConfig holds the tunables of the coordinator.
type CoordinatorConfig struct {
	Currency       string        // default currency of new intents
	GatewayTimeout time.Duration // bound on every gateway call
	HoldTTL        time.Duration // pending holds older than this are discarded
}

// Coordinator runs the reserve-and-pay flow.  It is safe for concurrent
// use; consistency under concurrency comes from the Store transaction and
// the guarded inventory decrement, not from in-process locking.
type Coordinator struct {
	store   Store
	gateway payment.Gateway
	notify  *Dispatcher
	cfg     CoordinatorConfig
	log     *slog.Logger
	now     func() time.Time
}

// NewCoordinator builds a Coordinator.  notify may be nil to disable
// notifications.
func NewCoordinator(store Store, gateway payment.Gateway, notify *Dispatcher, cfg CoordinatorConfig, log *slog.Logger) *Coordinator {
	if store == nil || gateway == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	if cfg.Currency == "" {
		cfg.Currency = "pkr"
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{store: store, gateway: gateway, notify: notify, cfg: cfg, log: log, now: time.Now}
}

// Wait blocks until notifications dispatched by earlier commits are done.
func (c *Coordinator) Wait() { c.notify.Wait() }

// Quote reports the price of seats beds in a room and how many beds are
// currently free.  It reads only.
func (c *Coordinator) Quote(ctx context.Context, roomID uint64, seats int) (*Quote, error) {
	if seats <= 0 {
		return nil, newError(KindValidation, "seats must be positive", nil)
	}
	room, _, err := c.loadBookable(ctx, 0, roomID)
	if err != nil {
		return nil, err
	}
	if !room.CanFit(seats) {
		return nil, insufficient(room, seats)
	}
	return &Quote{
		HostelID:         room.HostelID,
		RoomID:           room.ID,
		Seats:            seats,
		UnitPriceCents:   room.PricePerBedCents,
		TotalAmountCents: room.PriceFor(seats),
		Currency:         c.cfg.Currency,
		AvailableBeds:    room.AvailableBeds,
	}, nil
}

// InitiatePayment opens a gateway payment for the requested beds and
// records a pending hold keyed by the payment reference.  The hold does
// not take beds from the room; inventory only changes when the payment
// is confirmed.
func (c *Coordinator) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentIntent, error) {
	if err := validateStay(req.Seats, req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}
	if req.UserID == 0 {
		return nil, newError(KindValidation, "user is required", nil)
	}
	c.discardStaleHolds(ctx, req.RoomID)

	room, _, err := c.loadBookable(ctx, req.HostelID, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.CanFit(req.Seats) {
		return nil, insufficient(room, req.Seats)
	}

	amount := room.PriceFor(req.Seats)
	metadata := map[string]string{
		"hostelId":    strconv.FormatUint(room.HostelID, 10),
		"roomId":      strconv.FormatUint(room.ID, 10),
		"seatsBooked": strconv.Itoa(req.Seats),
		"userId":      strconv.FormatUint(req.UserID, 10),
	}
	intent, err := c.createIntent(ctx, amount, metadata)
	if err != nil {
		return nil, err
	}

	hold := &model.Reservation{
		HostelID:     room.HostelID,
		RoomID:       room.ID,
		UserID:       req.UserID,
		SeatsBooked:  req.Seats,
		CheckInDate:  req.CheckIn,
		CheckOutDate: req.CheckOut,
		PaymentRef:   intent.Reference,
		AmountCents:  intent.AmountCents,
		Currency:     intent.Currency,
	}
	if err := c.store.CreateHold(ctx, hold); err != nil {
		return nil, newError(KindStorageUnavailable, "failed to record payment hold", err)
	}

	out := &PaymentIntent{
		Reference:     intent.Reference,
		ClientSecret:  intent.ClientSecret,
		AmountCents:   intent.AmountCents,
		Currency:      intent.Currency,
		ReservationID: hold.ID,
	}
	if c.cfg.HoldTTL > 0 {
		out.ExpiresAt = c.now().UTC().Add(c.cfg.HoldTTL)
	}
	return out, nil
}

// ConfirmAndCommit turns a settled payment into a completed reservation.
// Confirming the same payment reference again returns the reservation
// recorded the first time without touching inventory.  When the payment
// has settled but the beds can no longer be taken, the returned *Error
// carries the payment reference and amount so the caller can refund.
func (c *Coordinator) ConfirmAndCommit(ctx context.Context, req ConfirmRequest) (*model.Reservation, error) {
	res, err := c.confirm(ctx, req)
	metrics.Booking().Commit(commitOutcome(err))
	return res, err
}

// CommitHold commits the pending hold recorded for paymentRef using the
// stay details captured at initiation.  It serves settlement callbacks
// from the gateway, which may be delivered more than once.
func (c *Coordinator) CommitHold(ctx context.Context, paymentRef string) (*model.Reservation, error) {
	hold, err := c.store.GetReservationByPaymentRef(ctx, paymentRef)
	if err != nil {
		return nil, storageError(err, "reservation")
	}
	return c.ConfirmAndCommit(ctx, ConfirmRequest{
		PaymentRef:  hold.PaymentRef,
		HostelID:    hold.HostelID,
		RoomID:      hold.RoomID,
		UserID:      hold.UserID,
		Seats:       hold.SeatsBooked,
		CheckIn:     hold.CheckInDate,
		CheckOut:    hold.CheckOutDate,
		AmountCents: hold.AmountCents,
	})
}

func (c *Coordinator) confirm(ctx context.Context, req ConfirmRequest) (*model.Reservation, error) {
	if req.PaymentRef == "" {
		return nil, newError(KindValidation, "payment reference is required", nil)
	}
	if err := validateStay(req.Seats, req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}

	existing, err := c.store.GetReservationByPaymentRef(ctx, req.PaymentRef)
	switch {
	case err == nil:
		if existing.UserID != req.UserID {
			return nil, newError(KindForbidden, "payment belongs to another user", nil)
		}
		if existing.Status == model.StatusCompleted {
			return existing, nil
		}
		if existing.Status != model.StatusPending {
			return nil, c.closedHold(ctx, existing)
		}
		if !holdMatches(existing, req) {
			return nil, newError(KindValidation, "booking details do not match the payment", nil)
		}
	case errors.Is(err, repository.ErrReservationNotFound):
		existing = nil
	default:
		return nil, newError(KindStorageUnavailable, "failed to look up payment", err)
	}

	settlement, err := c.settlement(ctx, req.PaymentRef)
	if err != nil {
		return nil, err
	}
	if !settlement.Settled {
		return nil, withPayment(newError(KindPaymentNotSettled,
			fmt.Sprintf("payment is %s", settlement.Status), nil), req.PaymentRef, req.AmountCents)
	}
	if existing == nil && !metadataMatches(settlement.Metadata, req) {
		return nil, newError(KindValidation, "booking details do not match the payment", nil)
	}

	amount := req.AmountCents
	if settlement.AmountCents > 0 {
		amount = settlement.AmountCents
	}
	currency := settlement.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}

	room, hostel, err := c.loadBookable(ctx, req.HostelID, req.RoomID)
	if err != nil {
		return nil, withPayment(asError(err), req.PaymentRef, amount)
	}
	// a hold keeps the price it was opened at; a direct confirm pays today's price
	price := room.PriceFor(req.Seats)
	if existing != nil {
		price = existing.AmountCents
	}
	if amount < price {
		return nil, withPayment(newError(KindValidation,
			fmt.Sprintf("payment of %d does not cover the booking price of %d", amount, price), nil), req.PaymentRef, amount)
	}
	if !room.CanFit(req.Seats) {
		return nil, withPayment(insufficient(room, req.Seats), req.PaymentRef, amount)
	}

	draft := &model.Reservation{
		HostelID:     room.HostelID,
		RoomID:       room.ID,
		UserID:       req.UserID,
		SeatsBooked:  req.Seats,
		CheckInDate:  req.CheckIn,
		CheckOutDate: req.CheckOut,
		Status:       model.StatusCompleted,
		PaymentRef:   req.PaymentRef,
		AmountCents:  amount,
		Currency:     currency,
	}
	res, already, err := c.commit(ctx, draft)
	if err != nil {
		c.log.WarnContext(ctx, "booking commit failed",
			"payment_ref", req.PaymentRef, "room_id", req.RoomID, "seats", req.Seats, "error", err)
		return nil, err
	}
	if !already {
		c.log.InfoContext(ctx, "booking committed",
			"reservation_id", res.ID, "payment_ref", res.PaymentRef, "room_id", res.RoomID, "seats", res.SeatsBooked)
		c.notify.Dispatch(
			Notification{UserID: res.UserID, Message: fmt.Sprintf("Booking for %s confirmed!", hostel.Name),
				Category: CategoryBooking, ReservationID: res.ID, HostelID: res.HostelID},
			Notification{UserID: hostel.OwnerID, Message: fmt.Sprintf("New booking for %s", hostel.Name),
				Category: CategoryAdmin, ReservationID: res.ID, HostelID: res.HostelID},
		)
	}
	return res, nil
}

// commit is the atomic unit: decrement beds and record the completed
// reservation in one transaction.  It reports already=true when another
// request committed the same payment reference first.
func (c *Coordinator) commit(ctx context.Context, draft *model.Reservation) (*model.Reservation, bool, error) {
	var out *model.Reservation
	already := false
	err := c.store.InTx(ctx, func(tx repository.Tx) error {
		hold, err := tx.LockReservationByPaymentRef(ctx, draft.PaymentRef)
		switch {
		case err == nil:
			if hold.Status == model.StatusCompleted {
				out, already = hold, true
				return nil
			}
			if hold.Status != model.StatusPending {
				return invalidTransition(hold.Status, model.StatusCompleted)
			}
		case errors.Is(err, repository.ErrReservationNotFound):
			hold = nil
		default:
			return err
		}

		if err := tx.DecrementAvailableBeds(ctx, draft.RoomID, draft.SeatsBooked); err != nil {
			return err
		}
		if hold != nil {
			hold.AmountCents = draft.AmountCents
			hold.Currency = draft.Currency
			if err := tx.CompleteReservation(ctx, hold); err != nil {
				return err
			}
			out = hold
			return nil
		}
		if err := tx.InsertReservation(ctx, draft); err != nil {
			return err
		}
		out = draft
		return nil
	})
	if err == nil {
		return out, already, nil
	}
	if errors.Is(err, repository.ErrDuplicatePaymentRef) || errors.Is(err, repository.ErrConflict) {
		// a concurrent confirm for the same payment may have committed first
		if existing, gerr := c.store.GetReservationByPaymentRef(ctx, draft.PaymentRef); gerr == nil && existing.Status == model.StatusCompleted {
			return existing, true, nil
		}
	}
	return nil, false, withPayment(commitError(err), draft.PaymentRef, draft.AmountCents)
}

func (c *Coordinator) createIntent(ctx context.Context, amount int64, metadata map[string]string) (payment.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()
	start := time.Now()
	intent, err := c.gateway.CreateIntent(ctx, amount, c.cfg.Currency, metadata)
	metrics.Booking().Gateway("create_intent", outcomeOf(err), time.Since(start))
	if err != nil {
		return payment.Intent{}, newError(KindPaymentGatewayError, "failed to create payment intent", err)
	}
	return intent, nil
}

func (c *Coordinator) settlement(ctx context.Context, ref string) (payment.Settlement, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()
	start := time.Now()
	s, err := c.gateway.SettlementStatus(ctx, ref)
	metrics.Booking().Gateway("settlement_status", outcomeOf(err), time.Since(start))
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return s, withPayment(newError(KindPaymentNotSettled, "payment reference unknown to gateway", err), ref, 0)
		}
		return s, withPayment(newError(KindPaymentGatewayError, "failed to verify payment", err), ref, 0)
	}
	return s, nil
}

// closedHold explains why a hold that is no longer pending cannot be
// committed.  A discarded hold whose payment was captured anyway carries
// the refund details.
func (c *Coordinator) closedHold(ctx context.Context, hold *model.Reservation) error {
	err := invalidTransition(hold.Status, model.StatusCompleted)
	if hold.Status != model.StatusDiscarded {
		return err
	}
	settlement, serr := c.settlement(ctx, hold.PaymentRef)
	switch {
	case KindOf(serr) == KindPaymentGatewayError:
		return serr
	case serr == nil && settlement.Settled:
		c.log.ErrorContext(ctx, "payment captured for a discarded hold, refund required",
			"reservation_id", hold.ID, "payment_ref", hold.PaymentRef, "amount_cents", settlement.AmountCents)
		return withPayment(err, hold.PaymentRef, settlement.AmountCents)
	}
	return err
}

// discardStaleHolds expires abandoned checkouts on a room, canceling each
// payment intent before its hold is discarded.  Failures are logged only;
// stale holds never block a booking.
func (c *Coordinator) discardStaleHolds(ctx context.Context, roomID uint64) {
	if c.cfg.HoldTTL <= 0 {
		return
	}
	holds, err := c.store.StaleHolds(ctx, roomID, c.now().UTC().Add(-c.cfg.HoldTTL))
	if err != nil {
		c.log.WarnContext(ctx, "listing stale holds failed", "room_id", roomID, "error", err)
		return
	}
	n := 0
	for i := range holds {
		if _, err := releaseHold(ctx, c.store, c.gateway, c.cfg.GatewayTimeout, &holds[i]); err != nil {
			c.log.WarnContext(ctx, "stale hold kept", "payment_ref", holds[i].PaymentRef, "error", err)
			continue
		}
		n++
	}
	if n > 0 {
		c.log.InfoContext(ctx, "discarded stale holds", "room_id", roomID, "count", n)
	}
}

// loadBookable fetches a room and its hostel and checks the hostel
// accepts bookings.  hostelID, when non-zero, must match the room.
func (c *Coordinator) loadBookable(ctx context.Context, hostelID, roomID uint64) (*model.Room, *model.Hostel, error) {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, storageError(err, "room")
	}
	if hostelID != 0 && room.HostelID != hostelID {
		return nil, nil, newError(KindNotFound, "room not found in hostel", nil)
	}
	hostel, err := c.store.GetHostel(ctx, room.HostelID)
	if err != nil {
		return nil, nil, storageError(err, "hostel")
	}
	if !hostel.Bookable() {
		return nil, nil, newError(KindValidation, "hostel is not accepting bookings", nil)
	}
	return room, hostel, nil
}

func validateStay(seats int, checkIn, checkOut time.Time) error {
	if seats <= 0 {
		return newError(KindValidation, "seats must be positive", nil)
	}
	if checkIn.IsZero() || checkOut.IsZero() {
		return newError(KindValidation, "check-in and check-out dates are required", nil)
	}
	if !checkOut.After(checkIn) {
		return newError(KindValidation, "check-out must be after check-in", nil)
	}
	return nil
}

func holdMatches(hold *model.Reservation, req ConfirmRequest) bool {
	return hold.RoomID == req.RoomID &&
		hold.SeatsBooked == req.Seats &&
		(req.HostelID == 0 || hold.HostelID == req.HostelID)
}

// metadataMatches checks the booking against the metadata attached to the
// intent at creation.  Missing keys are not checked.
func metadataMatches(md map[string]string, req ConfirmRequest) bool {
	check := func(key, want string) bool {
		got, ok := md[key]
		return !ok || got == want
	}
	return check("roomId", strconv.FormatUint(req.RoomID, 10)) &&
		check("seatsBooked", strconv.Itoa(req.Seats)) &&
		check("userId", strconv.FormatUint(req.UserID, 10))
}

func insufficient(room *model.Room, seats int) *Error {
	return newError(KindInsufficientInventory,
		fmt.Sprintf("requested %d beds, %d available", seats, room.AvailableBeds), nil)
}

func invalidTransition(from, to model.ReservationStatus) *Error {
	return newError(KindInvalidStateTransition, fmt.Sprintf("cannot move reservation from %s to %s", from, to), nil)
}

// storageError maps repository lookup failures.
func storageError(err error, what string) *Error {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrHostelNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return newError(KindNotFound, what+" not found", err)
	}
	return newError(KindStorageUnavailable, "failed to load "+what, err)
}

// commitError maps failures of a state-changing transaction.
func commitError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, repository.ErrInsufficientBeds):
		return newError(KindCommitConflict, "beds were taken by a concurrent booking", err)
	case errors.Is(err, repository.ErrStaleStatus):
		return newError(KindCommitConflict, "reservation changed concurrently", err)
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrDuplicatePaymentRef):
		return newError(KindCommitConflict, "conflicting concurrent write", err)
	case errors.Is(err, repository.ErrBedsOverflow):
		return newError(KindCommitConflict, "room inventory would exceed capacity", err)
	case errors.Is(err, repository.ErrReservationNotFound):
		return newError(KindNotFound, "reservation not found", err)
	}
	return newError(KindStorageUnavailable, "storage failure", err)
}

func asError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return newError(KindStorageUnavailable, "storage failure", err)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func commitOutcome(err error) string {
	if err == nil {
		return "committed"
	}
	switch KindOf(err) {
	case KindCommitConflict:
		return "conflict"
	case KindInsufficientInventory:
		return "insufficient"
	case KindPaymentNotSettled:
		return "not_settled"
	case KindPaymentGatewayError:
		return "gateway_error"
	}
	return "error"
}
