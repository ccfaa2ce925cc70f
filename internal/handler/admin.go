package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

const maxPageSize = 100

// HostelModerator records admin decisions on hostel listings.
type HostelModerator interface {
	ListByStatus(ctx context.Context, status string) ([]model.Hostel, error)
	SetStatus(ctx context.Context, id uint64, status, reason string) (*model.Hostel, error)
}

// AdminHandler serves platform-wide views for ADMIN users and the hostel
// approval workflow.  Invalidate, when set, purges cached public room
// listings after a decision changes whether a hostel is bookable.
type AdminHandler struct {
	Reservations ReservationReader
	Hostels      HostelModerator
	Invalidate   func(ctx context.Context) error
}

type rejectHostelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListBookings handles GET /v1/admin/bookings?page=&limit=&status=.
// page starts at 1 and limit defaults to 10.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	f := repository.ListFilter{Page: 1, Limit: 10}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
		}
		f.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		f.Limit = n
	}
	if v := c.QueryParam("status"); v != "" {
		st := model.ReservationStatus(v)
		if !st.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		f.Status = st
	}

	items, total, err := h.Reservations.ListAll(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": nonNil(items),
		"page":  f.Page,
		"limit": f.Limit,
		"total": total,
	})
}

// PendingHostels handles GET /v1/admin/hostels/pending and lists
// listings awaiting a decision, newest first.
func (h *AdminHandler) PendingHostels(c echo.Context) error {
	items, err := h.Hostels.ListByStatus(c.Request().Context(), model.HostelStatusPending)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []model.Hostel{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ApproveHostel handles PATCH /v1/admin/hostels/:id/approve.  An approved
// hostel accepts bookings.
func (h *AdminHandler) ApproveHostel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hostel id"})
	}
	return h.decide(c, id, model.HostelStatusApproved, "")
}

// RejectHostel handles PATCH /v1/admin/hostels/:id/reject.  A reason is
// required and shown to the owner.  Rejected hostels stop accepting new
// bookings; existing reservations are left alone.
func (h *AdminHandler) RejectHostel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hostel id"})
	}
	var body rejectHostelRequest
	if ok, err := bindAndValidate(c, &body); !ok {
		return err
	}
	return h.decide(c, id, model.HostelStatusRejected, body.Reason)
}

func (h *AdminHandler) decide(c echo.Context, id uint64, status, reason string) error {
	ctx := c.Request().Context()
	hostel, err := h.Hostels.SetStatus(ctx, id, status, reason)
	if errors.Is(err, repository.ErrHostelNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hostel not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if h.Invalidate != nil {
		if err := h.Invalidate(ctx); err != nil {
			slog.Warn("room cache invalidation failed", "error", err)
		}
	}
	slog.InfoContext(ctx, "hostel moderated", "hostel_id", hostel.ID, "status", hostel.Status)
	return c.JSON(http.StatusOK, hostel)
}
