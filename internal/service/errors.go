package service

import (
	"errors"
	"fmt"
)

// Kind classifies a booking failure so callers can decide how to react
// (retry, refund, report) without parsing messages.
type Kind string

const (
	KindNotFound               Kind = "NotFound"
	KindInsufficientInventory  Kind = "InsufficientInventory"
	KindPaymentNotSettled      Kind = "PaymentNotSettled"
	KindPaymentGatewayError    Kind = "PaymentGatewayError"
	KindCommitConflict         Kind = "CommitConflict"
	KindForbidden              Kind = "Forbidden"
	KindInvalidStateTransition Kind = "InvalidStateTransition"
	KindStorageUnavailable     Kind = "StorageUnavailable"
	KindValidation             Kind = "Validation"
)

// Error is returned by every Coordinator and Canceller operation.  When a
// payment has already been captured but the booking could not be
// recorded, PaymentRef and AmountCents identify what must be refunded.
type Error struct {
	Kind        Kind
	Msg         string
	Err         error
	PaymentRef  string
	AmountCents int64
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches kind sentinels such as ErrCommitConflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInsufficientInventory  = &Error{Kind: KindInsufficientInventory}
	ErrPaymentNotSettled      = &Error{Kind: KindPaymentNotSettled}
	ErrPaymentGateway         = &Error{Kind: KindPaymentGatewayError}
	ErrCommitConflict         = &Error{Kind: KindCommitConflict}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrStorageUnavailable     = &Error{Kind: KindStorageUnavailable}
	ErrValidation             = &Error{Kind: KindValidation}
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// withPayment attaches refund details to a commit-time failure.
func withPayment(err *Error, ref string, amount int64) *Error {
	err.PaymentRef = ref
	err.AmountCents = amount
	return err
}

// KindOf extracts the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
