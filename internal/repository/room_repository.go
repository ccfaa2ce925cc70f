package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// RoomRepo provides access to rooms and their bed inventory.  Reads go
// through the pooled *sql.DB; inventory mutations are only exposed as
// ...Tx methods so they always run inside the caller's transaction next
// to the reservation row they account for.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, hostel_id, room_number, total_beds, available_beds, price_per_bed_cents, created_at, updated_at`

func scanRoom(s interface{ Scan(...any) error }) (*model.Room, error) {
	var rm model.Room
	if err := s.Scan(&rm.ID, &rm.HostelID, &rm.RoomNumber, &rm.TotalBeds, &rm.AvailableBeds,
		&rm.PricePerBedCents, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

// GetByID retrieves a room by its primary key.  It returns
// ErrRoomNotFound when no row matches.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return rm, nil
}

// ListByHostel returns all rooms of a hostel ordered by room number.
// An empty slice is returned when the hostel has no rooms.
func (r *RoomRepo) ListByHostel(ctx context.Context, hostelID uint64) ([]model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE hostel_id = ? ORDER BY room_number`
	rows, err := r.db.QueryContext(ctx, q, hostelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// Create inserts a new room.  A fresh room starts with every bed
// available, so AvailableBeds is forced to TotalBeds.  On success the
// generated ID and timestamps are populated on rm.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	rm.AvailableBeds = rm.TotalBeds
	const q = `INSERT INTO rooms (hostel_id, room_number, total_beds, available_beds, price_per_bed_cents) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.HostelID, rm.RoomNumber, rm.TotalBeds, rm.AvailableBeds, rm.PricePerBedCents)
	switch {
	case isMySQL(err, mysqlDuplicateEntry):
		return ErrDuplicateRoomNumber
	case isMySQL(err, mysqlMissingParent):
		return ErrHostelNotFound
	case err != nil:
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*rm = *created
	return nil
}

// UpdatePrice changes the per-bed price of a room owned by ownerID.  It
// returns ErrRoomNotFound when the room does not exist and ErrForbidden
// when the room belongs to another owner's hostel.  Reservations already
// recorded keep the amount they were charged.
func (r *RoomRepo) UpdatePrice(ctx context.Context, roomID, ownerID uint64, priceCents int64) (*model.Room, error) {
	const qOwner = `SELECT h.owner_id FROM rooms r JOIN hostels h ON h.id = r.hostel_id WHERE r.id = ?`
	var owner uint64
	if err := r.db.QueryRowContext(ctx, qOwner, roomID).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if owner != ownerID {
		return nil, ErrForbidden
	}
	const qUpdate = `UPDATE rooms SET price_per_bed_cents = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, qUpdate, priceCents, roomID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, roomID)
}

// DecrementAvailableTx takes seats beds from the room inside tx.  The
// update is guarded on available_beds >= seats so two transactions can
// never both succeed against the same last beds; when the guard fails
// ErrInsufficientBeds is returned and nothing is written.
func (r *RoomRepo) DecrementAvailableTx(ctx context.Context, tx *sql.Tx, roomID uint64, seats int) error {
	const q = `UPDATE rooms SET available_beds = available_beds - ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND available_beds >= ?`
	res, err := tx.ExecContext(ctx, q, seats, roomID, seats)
	if err != nil {
		return classifyMySQL(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientBeds
	}
	return nil
}

// IncrementAvailableTx returns seats beds to the room inside tx.  The
// update is guarded so available beds never exceed total beds; when the
// guard fails ErrBedsOverflow is returned.
func (r *RoomRepo) IncrementAvailableTx(ctx context.Context, tx *sql.Tx, roomID uint64, seats int) error {
	const q = `UPDATE rooms SET available_beds = available_beds + ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND available_beds + ? <= total_beds`
	res, err := tx.ExecContext(ctx, q, seats, roomID, seats)
	if err != nil {
		return classifyMySQL(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBedsOverflow
	}
	return nil
}
