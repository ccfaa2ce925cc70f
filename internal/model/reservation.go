package model

import (
	"errors"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	// StatusPending marks a hold recorded when a payment intent is
	// created.  It never consumes inventory.
	StatusPending ReservationStatus = "pending"
	// StatusCompleted marks a paid reservation whose beds have been
	// taken from the room inventory.
	StatusCompleted ReservationStatus = "completed"
	// StatusCancelled marks a completed reservation that was later
	// cancelled; its beds have been returned.
	StatusCancelled ReservationStatus = "cancelled"
	// StatusDiscarded marks a pending hold that never settled.
	StatusDiscarded ReservationStatus = "discarded"
)

// ErrInvalidTransition is returned by Reservation.TransitionTo when the
// requested move is not part of the lifecycle.
var ErrInvalidTransition = errors.New("invalid reservation status transition")

var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusCompleted, StatusDiscarded},
	StatusCompleted: {StatusCancelled},
}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusDiscarded:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusDiscarded
}

// HoldsInventory reports whether a reservation in status s has beds
// deducted from its room.
func (s ReservationStatus) HoldsInventory() bool { return s == StatusCompleted }

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CancelTarget returns the status a cancellation moves s into.  Completed
// reservations become cancelled and pending holds become discarded.
func (s ReservationStatus) CancelTarget() (ReservationStatus, bool) {
	switch s {
	case StatusCompleted:
		return StatusCancelled, true
	case StatusPending:
		return StatusDiscarded, true
	}
	return "", false
}

// Reservation records a traveler's claim on beds in a room for a stay.
// A reservation is created either as a pending hold when checkout
// begins or directly as completed when a settled payment is committed.
//
// Fields:
//  ID           – primary key identifier.
//  HostelID     – hostel being booked.
//  RoomID       – room whose beds are booked.
//  UserID       – traveler who made the booking.
//  SeatsBooked  – number of beds in the booking.
//  CheckInDate  – first night of the stay.
//  CheckOutDate – departure day.
//  Status       – lifecycle state (pending, completed, cancelled,
//                 discarded).
//  PaymentRef   – gateway reference of the payment, unique per
//                 reservation.
//  AmountCents  – amount charged in minor units.
//  Currency     – ISO currency code of AmountCents.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Reservation struct {
	ID           uint64            `json:"id"`             // reservations.id
	HostelID     uint64            `json:"hostel_id"`      // reservations.hostel_id
	RoomID       uint64            `json:"room_id"`        // reservations.room_id
	UserID       uint64            `json:"user_id"`        // reservations.user_id
	SeatsBooked  int               `json:"seats_booked"`   // reservations.seats_booked
	CheckInDate  time.Time         `json:"check_in_date"`  // reservations.check_in_date
	CheckOutDate time.Time         `json:"check_out_date"` // reservations.check_out_date
	Status       ReservationStatus `json:"status"`         // reservations.status
	PaymentRef   string            `json:"payment_ref"`    // reservations.payment_ref
	AmountCents  int64             `json:"amount_cents"`   // reservations.amount_cents
	Currency     string            `json:"currency"`       // reservations.currency
	CreatedAt    time.Time         `json:"created_at"`     // reservations.created_at
	UpdatedAt    time.Time         `json:"updated_at"`     // reservations.updated_at
}

// TransitionTo moves the reservation into next, or returns
// ErrInvalidTransition leaving the status untouched.
func (r *Reservation) TransitionTo(next ReservationStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.Status = next
	return nil
}

// Nights returns the number of nights between check-in and check-out.
func (r *Reservation) Nights() int {
	d := r.CheckOutDate.Sub(r.CheckInDate)
	if d <= 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
