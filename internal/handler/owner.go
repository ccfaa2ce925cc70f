package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// HostelStore persists hostels.
type HostelStore interface {
	HostelReader
	Create(ctx context.Context, h *model.Hostel) error
}

// RoomStore persists rooms.
type RoomStore interface {
	Create(ctx context.Context, rm *model.Room) error
	UpdatePrice(ctx context.Context, roomID, ownerID uint64, priceCents int64) (*model.Room, error)
	ListByHostel(ctx context.Context, hostelID uint64) ([]model.Room, error)
}

// OwnerHandler bundles the stores hostel owners manage their listings
// through.  Invalidate, when set, purges cached public room listings
// after a write.
type OwnerHandler struct {
	Hostels      HostelStore                     // hostel persistence
	Rooms        RoomStore                       // room persistence
	Reservations ReservationReader               // bookings of owned hostels
	Invalidate   func(ctx context.Context) error // cache purge hook (optional)
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any store is nil
func NewOwnerHandler(hostels HostelStore, rooms RoomStore, reservations ReservationReader, invalidate func(ctx context.Context) error) *OwnerHandler {
	if hostels == nil || rooms == nil || reservations == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{Hostels: hostels, Rooms: rooms, Reservations: reservations, Invalidate: invalidate}
}

type createHostelRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type createRoomRequest struct {
	HostelID         uint64 `json:"hostel_id" validate:"required"`
	RoomNumber       string `json:"room_number" validate:"required,max=64"`
	TotalBeds        int    `json:"total_beds" validate:"required,gt=0,lte=1000"`
	PricePerBedCents int64  `json:"price_per_bed_cents" validate:"gte=0"`
}

type updatePriceRequest struct {
	PricePerBedCents *int64 `json:"price_per_bed_cents" validate:"required,gte=0"`
}

// CreateHostel handles POST /v1/owner/hostels.  The hostel is owned by
// the caller and starts pending until an admin approves it.
func (h *OwnerHandler) CreateHostel(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createHostelRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	hostel := &model.Hostel{OwnerID: ownerID, Name: body.Name}
	if err := h.Hostels.Create(c.Request().Context(), hostel); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, hostel)
}

// CreateRoom handles POST /v1/owner/rooms.  A new room starts with all
// of its beds available.
func (h *OwnerHandler) CreateRoom(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createRoomRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	ctx := c.Request().Context()

	hostel, err := h.Hostels.GetByID(ctx, body.HostelID)
	if errors.Is(err, repository.ErrHostelNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hostel not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if hostel.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	room := &model.Room{
		HostelID:         body.HostelID,
		RoomNumber:       body.RoomNumber,
		TotalBeds:        body.TotalBeds,
		PricePerBedCents: body.PricePerBedCents,
	}
	switch err := h.Rooms.Create(ctx, room); {
	case errors.Is(err, repository.ErrDuplicateRoomNumber):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room number already exists"})
	case errors.Is(err, repository.ErrHostelNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hostel not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, room)
}

// UpdateRoomPrice handles PATCH /v1/owner/rooms/:id/price.  Only the
// price is writable; bed counts are maintained by the booking flow.
func (h *OwnerHandler) UpdateRoomPrice(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roomID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body updatePriceRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	ctx := c.Request().Context()
	room, err := h.Rooms.UpdatePrice(ctx, roomID, ownerID, *body.PricePerBedCents)
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusOK, room)
}

// OwnerBookings handles GET /v1/owner/bookings and lists bookings of
// every hostel the caller owns.
func (h *OwnerHandler) OwnerBookings(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": nonNil(items)})
}

func (h *OwnerHandler) invalidate(ctx context.Context) {
	if h.Invalidate == nil {
		return
	}
	if err := h.Invalidate(ctx); err != nil {
		slog.Warn("room cache invalidation failed", "error", err)
	}
}
