package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// HostelRepo provides access to the hostels table.  Hostels are
// created by owners and referenced by rooms and reservations.
type HostelRepo struct {
	db *sql.DB
}

// NewHostelRepo returns a new HostelRepo bound to the given database.
func NewHostelRepo(db *sql.DB) *HostelRepo { return &HostelRepo{db: db} }

const hostelColumns = `id, owner_id, name, status, rejection_reason, created_at, updated_at`

func scanHostel(s interface{ Scan(...any) error }) (*model.Hostel, error) {
	var h model.Hostel
	if err := s.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Status, &h.RejectionReason, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a new hostel owned by h.OwnerID.  The hostel starts
// pending until an admin approves it, unless h.Status is set.  On
// success the generated ID and timestamps are populated on h.
func (r *HostelRepo) Create(ctx context.Context, h *model.Hostel) error {
	if h.Status == "" {
		h.Status = model.HostelStatusPending
	}
	const q = `INSERT INTO hostels (owner_id, name, status) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.OwnerID, h.Name, h.Status)
	if err != nil {
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
	*h = *created
	return nil
}

// GetByID retrieves a hostel by its primary key.  It returns
// ErrHostelNotFound when no row matches.
func (r *HostelRepo) GetByID(ctx context.Context, id uint64) (*model.Hostel, error) {
	const q = `SELECT ` + hostelColumns + ` FROM hostels WHERE id = ?`
	h, err := scanHostel(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHostelNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListByStatus returns the hostels in a moderation status, newest first.
func (r *HostelRepo) ListByStatus(ctx context.Context, status string) ([]model.Hostel, error) {
	const q = `SELECT ` + hostelColumns + ` FROM hostels WHERE status = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Hostel, 0)
	for rows.Next() {
		h, err := scanHostel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// SetStatus records an admin decision on a hostel and returns the
// updated row.  reason is stored for rejections and cleared otherwise.
// It returns ErrHostelNotFound when no row matches.
func (r *HostelRepo) SetStatus(ctx context.Context, id uint64, status, reason string) (*model.Hostel, error) {
	if status != model.HostelStatusRejected {
		reason = ""
	}
	const q = `UPDATE hostels SET status = ?, rejection_reason = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, status, reason, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
