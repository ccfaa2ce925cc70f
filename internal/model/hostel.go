package model

import "time"

// Hostel represents a property listed by an owner.  Only the fields
// needed by the booking flow are modelled here; descriptive data
// (address, amenities, photos) lives outside this service.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user who operates the hostel.
//  Name      – display name used in notifications.
//  Status    – moderation status: pending, approved or rejected.
//  RejectionReason – why an admin rejected the listing; empty otherwise.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hostel struct {
	ID              uint64    `json:"id"`                         // hostels.id
	OwnerID         uint64    `json:"owner_id"`                   // hostels.owner_id
	Name            string    `json:"name"`                       // hostels.name
	Status          string    `json:"status"`                     // hostels.status
	RejectionReason string    `json:"rejection_reason,omitempty"` // hostels.rejection_reason
	CreatedAt       time.Time `json:"created_at"`                 // hostels.created_at
	UpdatedAt       time.Time `json:"updated_at"`                 // hostels.updated_at
}

// Hostel moderation statuses.  New listings wait for an admin decision.
const (
	HostelStatusPending  = "pending"
	HostelStatusApproved = "approved"
	HostelStatusRejected = "rejected"
)

// Bookable reports whether the hostel currently accepts reservations.
// Only approved listings do.
func (h *Hostel) Bookable() bool { return h.Status == HostelStatusApproved }
