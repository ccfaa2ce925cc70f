package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
)

// StripeGateway implements Gateway on Stripe PaymentIntents.
type StripeGateway struct {
	client *stripe.Client
}

// NewStripeGateway builds a gateway authenticated with the given secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{client: stripe.NewClient(secretKey)}
}

// CreateIntent opens a PaymentIntent with automatic payment methods.
// Each call carries a fresh idempotency key so transport retries inside
// the Stripe SDK never create a second intent.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(uuid.NewString())
	pi, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// SettlementStatus retrieves the intent and reports it settled once its
// status is succeeded.
func (g *StripeGateway) SettlementStatus(ctx context.Context, reference string) (Settlement, error) {
	pi, err := g.client.V1PaymentIntents.Retrieve(ctx, reference, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
			return Settlement{}, ErrIntentNotFound
		}
		return Settlement{}, err
	}
	return SettlementFromIntent(pi), nil
}

// CancelIntent cancels the PaymentIntent.  Stripe refuses to cancel an
// intent that is succeeded, processing or already canceled; the intent is
// re-read in that case to tell those apart.
func (g *StripeGateway) CancelIntent(ctx context.Context, reference string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	_, err := g.client.V1PaymentIntents.Cancel(ctx, reference, params)
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case stripe.ErrorCodeResourceMissing:
		return ErrIntentNotFound
	case stripe.ErrorCodePaymentIntentUnexpectedState:
		pi, rerr := g.client.V1PaymentIntents.Retrieve(ctx, reference, &stripe.PaymentIntentRetrieveParams{})
		if rerr != nil {
			return rerr
		}
		return cancelOutcome(pi.Status, err)
	}
	return err
}

// cancelOutcome interprets the status of an intent that could not be
// canceled.
func cancelOutcome(status stripe.PaymentIntentStatus, cause error) error {
	switch status {
	case stripe.PaymentIntentStatusCanceled:
		return nil
	case stripe.PaymentIntentStatusSucceeded:
		return ErrIntentSettled
	}
	return cause
}

// SettlementFromIntent converts a Stripe PaymentIntent, as returned by the
// API or decoded from a webhook event, into a Settlement.
func SettlementFromIntent(pi *stripe.PaymentIntent) Settlement {
	s := Settlement{
		Status:   string(pi.Status),
		Currency: string(pi.Currency),
		Metadata: pi.Metadata,
	}
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		s.Settled = true
		s.AmountCents = pi.AmountReceived
	}
	return s
}
