package service

import (
	"context"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// Store is the persistence the booking flow depends on: room inventory,
// hostels, and the reservation ledger.  Multi-row writes go through InTx
// so the inventory change and the reservation row it accounts for are
// committed together or not at all.  *repository.Store implements it.
type Store interface {
	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	GetHostel(ctx context.Context, id uint64) (*model.Hostel, error)
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	GetReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error)
	CreateHold(ctx context.Context, res *model.Reservation) error
	StaleHolds(ctx context.Context, roomID uint64, cutoff time.Time) ([]model.Reservation, error)
	InTx(ctx context.Context, fn func(repository.Tx) error) error
}

// Notification is a message addressed to one user about a booking.
type Notification struct {
	UserID        uint64 `json:"user_id"`
	Message       string `json:"message"`
	Category      string `json:"category"`
	ReservationID uint64 `json:"reservation_id"`
	HostelID      uint64 `json:"hostel_id"`
}

// Notification categories.
const (
	CategoryBooking = "Booking"
	CategoryAdmin   = "Admin"
)

// Notifier delivers notifications.  Delivery is best effort: errors are
// logged by the caller and never undo a committed booking.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
