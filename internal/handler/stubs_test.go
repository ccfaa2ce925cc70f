package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
	"github.com/iliyamo/hostel-booking/internal/service"
)

type stubBooker struct {
	quote    *service.Quote
	intent   *service.PaymentIntent
	res      *model.Reservation
	err      error
	gotQuote struct {
		roomID uint64
		seats  int
	}
	gotPay     service.PaymentRequest
	gotConfirm service.ConfirmRequest
}

func (s *stubBooker) Quote(_ context.Context, roomID uint64, seats int) (*service.Quote, error) {
	s.gotQuote.roomID, s.gotQuote.seats = roomID, seats
	return s.quote, s.err
}

func (s *stubBooker) InitiatePayment(_ context.Context, req service.PaymentRequest) (*service.PaymentIntent, error) {
	s.gotPay = req
	return s.intent, s.err
}

func (s *stubBooker) ConfirmAndCommit(_ context.Context, req service.ConfirmRequest) (*model.Reservation, error) {
	s.gotConfirm = req
	return s.res, s.err
}

type stubCanceller struct {
	res      *model.Reservation
	err      error
	gotID    uint64
	gotActor model.Actor
}

func (s *stubCanceller) Cancel(_ context.Context, id uint64, actor model.Actor) (*model.Reservation, error) {
	s.gotID, s.gotActor = id, actor
	return s.res, s.err
}

type stubReservations struct {
	byID      map[uint64]*model.Reservation
	list      []model.Reservation
	total     int
	err       error
	gotFilter repository.ListFilter
	gotUser   uint64
	gotHostel uint64
}

func (s *stubReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.byID[id]; ok {
		return r, nil
	}
	return nil, repository.ErrReservationNotFound
}

func (s *stubReservations) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	s.gotUser = userID
	return s.list, s.err
}

func (s *stubReservations) ListEligible(_ context.Context, userID, hostelID uint64) ([]model.Reservation, error) {
	s.gotUser, s.gotHostel = userID, hostelID
	return s.list, s.err
}

func (s *stubReservations) ListByOwner(_ context.Context, ownerID uint64) ([]model.Reservation, error) {
	s.gotUser = ownerID
	return s.list, s.err
}

func (s *stubReservations) ListAll(_ context.Context, f repository.ListFilter) ([]model.Reservation, int, error) {
	s.gotFilter = f
	return s.list, s.total, s.err
}

type stubHostels struct {
	byID    map[uint64]*model.Hostel
	created *model.Hostel
	listed  string
}

func (s *stubHostels) GetByID(_ context.Context, id uint64) (*model.Hostel, error) {
	if h, ok := s.byID[id]; ok {
		return h, nil
	}
	return nil, repository.ErrHostelNotFound
}

func (s *stubHostels) Create(_ context.Context, h *model.Hostel) error {
	h.ID = 77
	if h.Status == "" {
		h.Status = model.HostelStatusPending
	}
	s.created = h
	return nil
}

func (s *stubHostels) ListByStatus(_ context.Context, status string) ([]model.Hostel, error) {
	s.listed = status
	var out []model.Hostel
	for _, h := range s.byID {
		if h.Status == status {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (s *stubHostels) SetStatus(_ context.Context, id uint64, status, reason string) (*model.Hostel, error) {
	h, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrHostelNotFound
	}
	h.Status, h.RejectionReason = status, reason
	return h, nil
}

type stubRooms struct {
	rooms     []model.Room
	createErr error
	updated   *model.Room
	updateErr error
	created   *model.Room
}

func (s *stubRooms) Create(_ context.Context, rm *model.Room) error {
	if s.createErr != nil {
		return s.createErr
	}
	rm.ID = 501
	rm.AvailableBeds = rm.TotalBeds
	s.created = rm
	return nil
}

func (s *stubRooms) UpdatePrice(_ context.Context, roomID, ownerID uint64, price int64) (*model.Room, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &model.Room{ID: roomID, PricePerBedCents: price}, nil
}

func (s *stubRooms) ListByHostel(_ context.Context, hostelID uint64) ([]model.Room, error) {
	return s.rooms, nil
}

type stubSettlement struct {
	commitErr  error
	discardErr error
	committed  []string
	discarded  []string
}

func (s *stubSettlement) CommitHold(_ context.Context, ref string) (*model.Reservation, error) {
	s.committed = append(s.committed, ref)
	if s.commitErr != nil {
		return nil, s.commitErr
	}
	return &model.Reservation{ID: 9, PaymentRef: ref, Status: model.StatusCompleted}, nil
}

func (s *stubSettlement) DiscardHold(_ context.Context, ref string) (*model.Reservation, error) {
	s.discarded = append(s.discarded, ref)
	if s.discardErr != nil {
		return nil, s.discardErr
	}
	return &model.Reservation{ID: 9, PaymentRef: ref, Status: model.StatusDiscarded}, nil
}

// newTestEcho returns an echo instance with the request validator wired.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

// as stands in for JWTAuth: it stores the claims the way JWT decoding does.
func as(userID uint64, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", float64(userID))
			c.Set("role", role)
			return next(c)
		}
	}
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
