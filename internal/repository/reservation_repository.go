package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// ReservationRepo provides access to the reservations table.  A
// reservation is keyed by its id and, independently, by the unique
// payment reference of the gateway transaction that paid for it.  All
// timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ListFilter narrows the admin listing.  Page starts at 1; Status is
// ignored when empty.
type ListFilter struct {
	Page   int
	Limit  int
	Status model.ReservationStatus
}

const reservationColumns = `id, hostel_id, room_id, user_id, seats_booked, check_in_date, check_out_date, status, payment_ref, amount_cents, currency, created_at, updated_at`

func scanReservation(s interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	var status string
	if err := s.Scan(&res.ID, &res.HostelID, &res.RoomID, &res.UserID, &res.SeatsBooked,
		&res.CheckInDate, &res.CheckOutDate, &status, &res.PaymentRef, &res.AmountCents,
		&res.Currency, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}
	return err
}

// GetByID retrieves a reservation by its primary key.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

// GetByPaymentRef retrieves the reservation recorded for a gateway
// payment reference.  It returns ErrReservationNotFound when the
// reference has never been seen.
func (r *ReservationRepo) GetByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE payment_ref = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, ref))
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

// CreateHold inserts a pending reservation for a payment that has been
// initiated but not settled.  A hold takes no beds from the room.  The
// generated ID and timestamps are populated on res.
func (r *ReservationRepo) CreateHold(ctx context.Context, res *model.Reservation) error {
	res.Status = model.StatusPending
	const q = `INSERT INTO reservations (hostel_id, room_id, user_id, seats_booked, check_in_date, check_out_date, status, payment_ref, amount_cents, currency)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.HostelID, res.RoomID, res.UserID, res.SeatsBooked,
		res.CheckInDate, res.CheckOutDate, string(res.Status), res.PaymentRef, res.AmountCents, res.Currency)
	if err != nil {
		return classifyMySQL(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	return nil
}

// staleHoldBatch caps how many abandoned holds one sweep releases.
const staleHoldBatch = 20

// ListStaleHolds returns up to limit pending holds on a room created
// before cutoff, oldest first.
func (r *ReservationRepo) ListStaleHolds(ctx context.Context, roomID uint64, cutoff time.Time, limit int) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE room_id = ? AND status = 'pending' AND created_at < ? ORDER BY created_at, id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, roomID, cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

// ListByUser returns every reservation made by a traveler, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

// ListEligible returns the traveler's completed reservations at a
// hostel.  Only completed stays count as evidence of a visit, e.g. for
// leaving a review.
func (r *ReservationRepo) ListEligible(ctx context.Context, userID, hostelID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE user_id = ? AND hostel_id = ? AND status = 'completed' ORDER BY check_in_date DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, hostelID)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

// ListByOwner returns reservations for every hostel operated by ownerID,
// newest first.
func (r *ReservationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error) {
	const q = `SELECT r.id, r.hostel_id, r.room_id, r.user_id, r.seats_booked, r.check_in_date, r.check_out_date,
	                  r.status, r.payment_ref, r.amount_cents, r.currency, r.created_at, r.updated_at
	           FROM reservations r JOIN hostels h ON h.id = r.hostel_id
	           WHERE h.owner_id = ? ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	return scanReservations(rows)
}

// ListAll returns one page of reservations across all hostels together
// with the total number of rows matching the filter.
func (r *ReservationRepo) ListAll(ctx context.Context, f ListFilter) ([]model.Reservation, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	where := ""
	args := []any{}
	if f.Status != "" {
		where = ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// LockByIDTx reads a reservation with SELECT ... FOR UPDATE so the row
// stays locked until tx ends.
func (r *ReservationRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, classifyMySQL(notFound(err))
	}
	return res, nil
}

// LockByPaymentRefTx is LockByIDTx keyed by payment reference.
func (r *ReservationRepo) LockByPaymentRefTx(ctx context.Context, tx *sql.Tx, ref string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE payment_ref = ? FOR UPDATE`
	res, err := scanReservation(tx.QueryRowContext(ctx, q, ref))
	if err != nil {
		return nil, classifyMySQL(notFound(err))
	}
	return res, nil
}

// InsertTx inserts res inside tx with whatever status it carries.  A
// duplicate payment reference surfaces as ErrDuplicatePaymentRef.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (hostel_id, room_id, user_id, seats_booked, check_in_date, check_out_date, status, payment_ref, amount_cents, currency)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.HostelID, res.RoomID, res.UserID, res.SeatsBooked,
		res.CheckInDate, res.CheckOutDate, string(res.Status), res.PaymentRef, res.AmountCents, res.Currency)
	if err != nil {
		return classifyMySQL(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	return nil
}

// CompleteTx promotes a pending hold to completed, recording the amount
// actually charged.  It returns ErrStaleStatus when the row is no longer
// pending.
func (r *ReservationRepo) CompleteTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `UPDATE reservations SET status = 'completed', amount_cents = ?, currency = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND status = 'pending'`
	result, err := tx.ExecContext(ctx, q, res.AmountCents, res.Currency, res.ID)
	if err != nil {
		return classifyMySQL(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}
	res.Status = model.StatusCompleted
	return nil
}

// UpdateStatusTx moves a reservation from one status to another inside
// tx.  The update only applies while the row is still in from; otherwise
// ErrStaleStatus is returned.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
	result, err := tx.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return classifyMySQL(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}
