package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-booking/internal/model"
)

var roomCols = []string{"id", "hostel_id", "room_number", "total_beds", "available_beds", "price_per_bed_cents", "created_at", "updated_at"}

func TestRoomCreateStartsFullyAvailable(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO rooms").
		WithArgs(uint64(3), "A-101", 6, 6, int64(150000)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT (.+) FROM rooms WHERE id = \\?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(7, 3, "A-101", 6, 6, 150000, now, now))

	rm := &model.Room{HostelID: 3, RoomNumber: "A-101", TotalBeds: 6, AvailableBeds: 0, PricePerBedCents: 150000}
	require.NoError(t, store.Rooms.Create(context.Background(), rm))
	assert.Equal(t, uint64(7), rm.ID)
	assert.Equal(t, 6, rm.AvailableBeds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomGetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM rooms WHERE id = \\?").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(roomCols))

	_, err := store.GetRoom(context.Background(), 99)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomUpdatePriceRejectsOtherOwner(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT h.owner_id FROM rooms r JOIN hostels h").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(100))

	_, err := store.Rooms.UpdatePrice(context.Background(), 7, 200, 180000)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomCreateDuplicateNumber(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO rooms").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-A-101'"})

	err := store.Rooms.Create(context.Background(), &model.Room{HostelID: 3, RoomNumber: "A-101", TotalBeds: 4})
	assert.ErrorIs(t, err, ErrDuplicateRoomNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomCreateUnknownHostel(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO rooms").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	err := store.Rooms.Create(context.Background(), &model.Room{HostelID: 404, RoomNumber: "A-101", TotalBeds: 4})
	assert.ErrorIs(t, err, ErrHostelNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
