package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// Tx is the set of writes that must commit or roll back together when a
// reservation changes state.  Every inventory change happens through a
// Tx alongside the reservation row it accounts for.
type Tx interface {
	LockReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	LockReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error)
	DecrementAvailableBeds(ctx context.Context, roomID uint64, seats int) error
	IncrementAvailableBeds(ctx context.Context, roomID uint64, seats int) error
	InsertReservation(ctx context.Context, res *model.Reservation) error
	CompleteReservation(ctx context.Context, res *model.Reservation) error
	UpdateReservationStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error
}

// Store bundles the repositories used by the booking flow and runs
// multi-row writes in a single MySQL transaction.
type Store struct {
	db           *sql.DB
	Rooms        *RoomRepo
	Hostels      *HostelRepo
	Reservations *ReservationRepo
}

// NewStore wires the repositories onto one database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Rooms:        NewRoomRepo(db),
		Hostels:      NewHostelRepo(db),
		Reservations: NewReservationRepo(db),
	}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return s.Rooms.GetByID(ctx, id)
}

func (s *Store) GetHostel(ctx context.Context, id uint64) (*model.Hostel, error) {
	return s.Hostels.GetByID(ctx, id)
}

func (s *Store) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.Reservations.GetByID(ctx, id)
}

func (s *Store) GetReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	return s.Reservations.GetByPaymentRef(ctx, ref)
}

func (s *Store) CreateHold(ctx context.Context, res *model.Reservation) error {
	return s.Reservations.CreateHold(ctx, res)
}

func (s *Store) StaleHolds(ctx context.Context, roomID uint64, cutoff time.Time) ([]model.Reservation, error) {
	return s.Reservations.ListStaleHolds(ctx, roomID, cutoff, staleHoldBatch)
}

// InTx runs fn inside one database transaction.  The transaction is
// committed only when fn returns nil; any error from fn, or a panic,
// rolls back every write fn made.  Lock conflicts reported at commit
// time surface as ErrConflict.
func (s *Store) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx, rooms: s.Rooms, reservations: s.Reservations}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyMySQL(err)
	}
	committed = true
	return nil
}

// sqlTx adapts the repositories' ...Tx methods to the Tx interface.
type sqlTx struct {
	tx           *sql.Tx
	rooms        *RoomRepo
	reservations *ReservationRepo
}

func (t *sqlTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return t.reservations.LockByIDTx(ctx, t.tx, id)
}

func (t *sqlTx) LockReservationByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	return t.reservations.LockByPaymentRefTx(ctx, t.tx, ref)
}

func (t *sqlTx) DecrementAvailableBeds(ctx context.Context, roomID uint64, seats int) error {
	return t.rooms.DecrementAvailableTx(ctx, t.tx, roomID, seats)
}

func (t *sqlTx) IncrementAvailableBeds(ctx context.Context, roomID uint64, seats int) error {
	return t.rooms.IncrementAvailableTx(ctx, t.tx, roomID, seats)
}

func (t *sqlTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	return t.reservations.InsertTx(ctx, t.tx, res)
}

func (t *sqlTx) CompleteReservation(ctx context.Context, res *model.Reservation) error {
	return t.reservations.CompleteTx(ctx, t.tx, res)
}

func (t *sqlTx) UpdateReservationStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) error {
	return t.reservations.UpdateStatusTx(ctx, t.tx, id, from, to)
}
