package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// PublicHandler serves unauthenticated browsing endpoints.
type PublicHandler struct {
	Hostels HostelReader
	Rooms   RoomStore
}

// PublicRoom is a room as shown to guests.  Availability is a snapshot;
// quotes and confirmations always re-read inventory.
type PublicRoom struct {
	ID               uint64 `json:"id"`
	RoomNumber       string `json:"room_number"`
	TotalBeds        int    `json:"total_beds"`
	AvailableBeds    int    `json:"available_beds"`
	PricePerBedCents int64  `json:"price_per_bed_cents"`
}

// HostelRooms handles GET /v1/hostels/:id/rooms.
func (h *PublicHandler) HostelRooms(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hostel id"})
	}
	ctx := c.Request().Context()
	hostel, err := h.Hostels.GetByID(ctx, id)
	if errors.Is(err, repository.ErrHostelNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hostel not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rooms, err := h.Rooms.ListByHostel(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hostel": echo.Map{"id": hostel.ID, "name": hostel.Name, "bookable": hostel.Bookable()},
		"items":  publicRooms(rooms),
	})
}

func publicRooms(rooms []model.Room) []PublicRoom {
	out := make([]PublicRoom, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, PublicRoom{
			ID:               rm.ID,
			RoomNumber:       rm.RoomNumber,
			TotalBeds:        rm.TotalBeds,
			AvailableBeds:    rm.AvailableBeds,
			PricePerBedCents: rm.PricePerBedCents,
		})
	}
	return out
}
