package model

import "time"

// Room is a bookable unit inside a hostel.  Its inventory is counted
// in beds: TotalBeds is the capacity and AvailableBeds the number of
// beds not yet taken by completed reservations.  The booking flow
// maintains 0 <= AvailableBeds <= TotalBeds at all times.
//
// Fields:
//  ID                – primary key identifier.
//  HostelID          – hostel that owns the room.
//  RoomNumber        – human readable label, unique per hostel.
//  TotalBeds         – capacity of the room.
//  AvailableBeds     – beds still free to book.
//  PricePerBedCents  – price of one bed in minor currency units.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Room struct {
	ID               uint64    `json:"id"`                  // rooms.id
	HostelID         uint64    `json:"hostel_id"`           // rooms.hostel_id
	RoomNumber       string    `json:"room_number"`         // rooms.room_number
	TotalBeds        int       `json:"total_beds"`          // rooms.total_beds
	AvailableBeds    int       `json:"available_beds"`      // rooms.available_beds
	PricePerBedCents int64     `json:"price_per_bed_cents"` // rooms.price_per_bed_cents
	CreatedAt        time.Time `json:"created_at"`          // rooms.created_at
	UpdatedAt        time.Time `json:"updated_at"`          // rooms.updated_at
}

// CanFit reports whether the room currently has at least seats free beds.
func (r *Room) CanFit(seats int) bool {
	return seats > 0 && seats <= r.AvailableBeds
}

// PriceFor returns the total price in minor units for seats beds.
func (r *Room) PriceFor(seats int) int64 {
	return r.PricePerBedCents * int64(seats)
}
