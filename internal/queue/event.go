// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// DefaultNotificationQueue is the durable queue booking notifications are
// published to when no other name is configured.
const DefaultNotificationQueue = "booking.notifications"

// NotificationEvent is published after a booking changes state.  It is
// addressed to one user and carries enough context for downstream
// consumers (mail, push, audit log) to act without querying the primary
// database.
type NotificationEvent struct {
	ID            string `json:"id"`
	UserID        uint64 `json:"user_id"`
	Category      string `json:"category"`
	Message       string `json:"message"`
	ReservationID uint64 `json:"reservation_id"`
	HostelID      uint64 `json:"hostel_id"`
	CreatedAt     string `json:"created_at"`
}
