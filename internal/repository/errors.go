// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between different failure
// scenarios without inspecting driver specific errors. For example,
// ErrForbidden indicates that the current user is not authorized to
// perform an operation on a resource owned by someone else, while
// ErrInsufficientBeds signals that a guarded inventory update found
// fewer free beds than requested.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because another
// transaction holds conflicting locks (deadlock or lock wait timeout).
// Callers may retry the whole operation.
var ErrConflict = errors.New("conflict")

// ErrRoomNotFound, ErrHostelNotFound and ErrReservationNotFound are
// returned when a lookup by primary key or payment reference finds no
// row.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrHostelNotFound      = errors.New("hostel not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// ErrInsufficientBeds is returned by a guarded decrement that matched no
// row because the room no longer has enough free beds.
var ErrInsufficientBeds = errors.New("insufficient available beds")

// ErrBedsOverflow is returned by a guarded increment that would push
// available beds above the room capacity.
var ErrBedsOverflow = errors.New("available beds would exceed total beds")

// ErrStaleStatus is returned when a status update finds the reservation
// no longer in the expected state.
var ErrStaleStatus = errors.New("reservation status changed concurrently")

// ErrDuplicatePaymentRef is returned when inserting a reservation whose
// payment reference is already recorded.
var ErrDuplicatePaymentRef = errors.New("payment reference already recorded")

// ErrDuplicateRoomNumber is returned when a hostel already has a room
// with the same number.
var ErrDuplicateRoomNumber = errors.New("room number already exists in hostel")

const (
	mysqlDuplicateEntry   = 1062
	mysqlLockWaitTimeout  = 1205
	mysqlDeadlockDetected = 1213
	mysqlMissingParent    = 1452
)

// isMySQL reports whether err carries the given MySQL error number.
func isMySQL(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

// classifyMySQL maps driver errors that carry domain meaning onto the
// sentinels above. Any other error is returned unchanged.
func classifyMySQL(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlDuplicateEntry:
		return errors.Join(ErrDuplicatePaymentRef, err)
	case mysqlLockWaitTimeout, mysqlDeadlockDetected:
		return errors.Join(ErrConflict, err)
	}
	return err
}
