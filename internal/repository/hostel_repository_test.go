package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-booking/internal/model"
)

var hostelCols = []string{"id", "owner_id", "name", "status", "rejection_reason", "created_at", "updated_at"}

func TestHostelCreateStartsPending(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO hostels").
		WithArgs(uint64(100), "Harbour View", "pending").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT (.+) FROM hostels WHERE id = \\?").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(hostelCols).AddRow(5, 100, "Harbour View", "pending", "", now, now))

	h := &model.Hostel{OwnerID: 100, Name: "Harbour View"}
	require.NoError(t, store.Hostels.Create(context.Background(), h))
	assert.Equal(t, uint64(5), h.ID)
	assert.Equal(t, model.HostelStatusPending, h.Status)
	assert.False(t, h.Bookable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHostelSetStatus(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE hostels SET status = \\?, rejection_reason = \\?").
		WithArgs("rejected", "missing fire permit", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM hostels WHERE id = \\?").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(hostelCols).AddRow(5, 100, "Harbour View", "rejected", "missing fire permit", now, now))

	h, err := store.Hostels.SetStatus(context.Background(), 5, model.HostelStatusRejected, "missing fire permit")
	require.NoError(t, err)
	assert.Equal(t, "missing fire permit", h.RejectionReason)

	// approving clears any earlier reason
	mock.ExpectExec("UPDATE hostels SET status = \\?, rejection_reason = \\?").
		WithArgs("approved", "", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM hostels WHERE id = \\?").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(hostelCols).AddRow(5, 100, "Harbour View", "approved", "", now, now))

	h, err = store.Hostels.SetStatus(context.Background(), 5, model.HostelStatusApproved, "stale reason")
	require.NoError(t, err)
	assert.True(t, h.Bookable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHostelSetStatusNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE hostels SET status").
		WithArgs("approved", "", uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM hostels WHERE id = \\?").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(hostelCols))

	_, err := store.Hostels.SetStatus(context.Background(), 9, model.HostelStatusApproved, "")
	assert.ErrorIs(t, err, ErrHostelNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHostelListByStatus(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM hostels WHERE status = \\? ORDER BY created_at DESC").
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows(hostelCols).
			AddRow(6, 101, "Old Town Beds", "pending", "", now, now).
			AddRow(5, 100, "Harbour View", "pending", "", now, now))

	items, err := store.Hostels.ListByStatus(context.Background(), model.HostelStatusPending)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint64(6), items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
