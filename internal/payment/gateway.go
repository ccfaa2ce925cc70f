// Package payment talks to the external payment gateway.  The booking
// flow needs three things from a gateway: open a payment intent for an
// amount, ask whether that intent has settled, and cancel an intent whose
// hold was given up so it can no longer be paid.  Gateway hides the
// provider behind those calls so the coordinator can be exercised
// against FakeGateway in tests and local development.
package payment

import (
	"context"
	"errors"
)

// ErrIntentNotFound is returned by SettlementStatus when the gateway has
// no record of the reference.
var ErrIntentNotFound = errors.New("payment intent not found")

// ErrIntentSettled is returned by CancelIntent when the payment was
// captured before the cancellation reached the gateway.
var ErrIntentSettled = errors.New("payment intent already settled")

// Intent is a payment the traveler has been asked to complete.
//
// Fields:
//  Reference    – gateway identifier of the intent, later used as the
//                 reservation's payment reference.
//  ClientSecret – secret handed to the client SDK to confirm the
//                 payment.
//  AmountCents  – amount requested in minor units.
//  Currency     – ISO currency code, lower case.
type Intent struct {
	Reference    string
	ClientSecret string
	AmountCents  int64
	Currency     string
}

// Settlement is the gateway's view of an intent at query time.
//
// Fields:
//  Settled     – true once funds are captured.
//  Status      – raw provider status, for logging.
//  AmountCents – amount actually received; zero when not settled.
//  Currency    – currency of AmountCents.
//  Metadata    – metadata attached when the intent was created.
type Settlement struct {
	Settled     bool
	Status      string
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// Gateway is the payment provider used by the booking flow.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
	SettlementStatus(ctx context.Context, reference string) (Settlement, error)
	// CancelIntent stops an unsettled intent from being paid.  Cancelling
	// an intent that is already canceled succeeds; one that has settled
	// fails with ErrIntentSettled.
	CancelIntent(ctx context.Context, reference string) error
}
