package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
	"github.com/iliyamo/hostel-booking/internal/service"
)

// Booker is the reserve-and-pay flow as used by the HTTP layer.
type Booker interface {
	Quote(ctx context.Context, roomID uint64, seats int) (*service.Quote, error)
	InitiatePayment(ctx context.Context, req service.PaymentRequest) (*service.PaymentIntent, error)
	ConfirmAndCommit(ctx context.Context, req service.ConfirmRequest) (*model.Reservation, error)
}

// BookingCanceller cancels reservations on behalf of an actor.
type BookingCanceller interface {
	Cancel(ctx context.Context, id uint64, actor model.Actor) (*model.Reservation, error)
}

// ReservationReader exposes the read side of the reservation ledger.
type ReservationReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListEligible(ctx context.Context, userID, hostelID uint64) ([]model.Reservation, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error)
	ListAll(ctx context.Context, f repository.ListFilter) ([]model.Reservation, int, error)
}

// HostelReader looks up hostels.
type HostelReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Hostel, error)
}

// BookingHandler serves traveler-facing booking endpoints.  All methods
// assume JWTAuth has run; the user id always comes from the token, never
// from the request body.
type BookingHandler struct {
	Booker       Booker            // quote, payment intent and confirmation
	Canceller    BookingCanceller  // cancellation with inventory release
	Reservations ReservationReader // reservation listings
	Hostels      HostelReader      // owner lookups for access checks
	Debug        bool              // expose error causes in responses
}

// NewBookingHandler constructs a BookingHandler and panics if any
// dependency is nil.
func NewBookingHandler(b Booker, cn BookingCanceller, rr ReservationReader, hr HostelReader, debug bool) *BookingHandler {
	if b == nil || cn == nil || rr == nil || hr == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Booker: b, Canceller: cn, Reservations: rr, Hostels: hr, Debug: debug}
}

type quoteRequest struct {
	RoomID      uint64 `json:"room_id" validate:"required"`
	SeatsBooked int    `json:"seats_booked" validate:"required,gt=0"`
}

type stayRequest struct {
	HostelID     uint64 `json:"hostel_id" validate:"required"`
	RoomID       uint64 `json:"room_id" validate:"required"`
	SeatsBooked  int    `json:"seats_booked" validate:"required,gt=0"`
	CheckInDate  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
}

type confirmRequest struct {
	stayRequest
	PaymentRef  string `json:"payment_ref" validate:"required,max=255"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
}

// Quote handles POST /v1/bookings/quote.  It prices a stay without
// touching inventory.
func (h *BookingHandler) Quote(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body quoteRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	q, err := h.Booker.Quote(c.Request().Context(), body.RoomID, body.SeatsBooked)
	if err != nil {
		return respondError(c, err, h.Debug, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, q)
}

// PaymentIntent handles POST /v1/bookings/payment-intent.  It creates a
// gateway intent and returns the reference the client later confirms.
func (h *BookingHandler) PaymentIntent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body stayRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	req := service.PaymentRequest{
		HostelID: body.HostelID,
		RoomID:   body.RoomID,
		UserID:   userID,
		Seats:    body.SeatsBooked,
	}
	if req.CheckIn, req.CheckOut, err = body.dates(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	intent, err := h.Booker.InitiatePayment(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, h.Debug, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, intent)
}

// Confirm handles POST /v1/bookings/confirm.  Repeating a confirmation
// for the same payment_ref returns the reservation already recorded.
func (h *BookingHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body confirmRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	req := service.ConfirmRequest{
		PaymentRef:  body.PaymentRef,
		HostelID:    body.HostelID,
		RoomID:      body.RoomID,
		UserID:      userID,
		Seats:       body.SeatsBooked,
		AmountCents: body.AmountCents,
	}
	if req.CheckIn, req.CheckOut, err = body.dates(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Booker.ConfirmAndCommit(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, h.Debug, http.StatusConflict)
	}
	return c.JSON(http.StatusCreated, res)
}

// Cancel handles DELETE /v1/bookings/:id.  Travelers cancel their own
// bookings; hostel owners and admins may cancel any booking they manage.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	res, err := h.Canceller.Cancel(c.Request().Context(), id, actor)
	if err != nil {
		return respondError(c, err, h.Debug, http.StatusConflict)
	}
	return c.JSON(http.StatusOK, res)
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNil(items)})
}

// GetBooking handles GET /v1/bookings/:id.  The traveler, the owner of
// the hostel and admins may read a booking.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.UserID == actor.UserID || actor.IsAdmin() {
		return c.JSON(http.StatusOK, res)
	}
	if actor.Role == model.RoleOwner {
		hostel, err := h.Hostels.GetByID(ctx, res.HostelID)
		if err == nil && hostel.OwnerID == actor.UserID {
			return c.JSON(http.StatusOK, res)
		}
		if err != nil && !errors.Is(err, repository.ErrHostelNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
}

// EligibleBookings handles GET /v1/hostels/:id/eligible-bookings.  It
// lists the caller's completed stays at a hostel, which are the ones a
// review may refer to.
func (h *BookingHandler) EligibleBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hostelID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hostel id"})
	}
	items, err := h.Reservations.ListEligible(c.Request().Context(), userID, hostelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNil(items)})
}

func (s stayRequest) dates() (checkIn, checkOut time.Time, err error) {
	if checkIn, err = parseDate(s.CheckInDate); err != nil {
		return checkIn, checkOut, errors.New("invalid check_in_date")
	}
	if checkOut, err = parseDate(s.CheckOutDate); err != nil {
		return checkIn, checkOut, errors.New("invalid check_out_date")
	}
	return checkIn, checkOut, nil
}

func nonNil(items []model.Reservation) []model.Reservation {
	if items == nil {
		return []model.Reservation{}
	}
	return items
}
