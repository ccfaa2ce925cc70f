package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestFakeGatewayLifecycle(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()

	in, err := g.CreateIntent(ctx, 450000, "PKR", map[string]string{"roomId": "7"})
	require.NoError(t, err)
	assert.Equal(t, "pkr", in.Currency)
	assert.NotEmpty(t, in.ClientSecret)

	st, err := g.SettlementStatus(ctx, in.Reference)
	require.NoError(t, err)
	assert.False(t, st.Settled)
	assert.Equal(t, "7", st.Metadata["roomId"])

	require.True(t, g.Settle(in.Reference))
	st, err = g.SettlementStatus(ctx, in.Reference)
	require.NoError(t, err)
	assert.True(t, st.Settled)
	assert.Equal(t, int64(450000), st.AmountCents)
}

func TestFakeGatewayUnknownAndOutage(t *testing.T) {
	g := NewFakeGateway()
	_, err := g.SettlementStatus(context.Background(), "pi_nope")
	assert.ErrorIs(t, err, ErrIntentNotFound)
	assert.False(t, g.Settle("pi_nope"))

	g.Err = errors.New("gateway down")
	_, err = g.CreateIntent(context.Background(), 100, "pkr", nil)
	assert.EqualError(t, err, "gateway down")
}

func TestSettlementFromIntent(t *testing.T) {
	pi := &stripe.PaymentIntent{
		ID:             "pi_1",
		Status:         stripe.PaymentIntentStatusSucceeded,
		AmountReceived: 300000,
		Currency:       stripe.Currency("pkr"),
		Metadata:       map[string]string{"hostelId": "3"},
	}
	s := SettlementFromIntent(pi)
	assert.True(t, s.Settled)
	assert.Equal(t, int64(300000), s.AmountCents)
	assert.Equal(t, "3", s.Metadata["hostelId"])

	pi.Status = stripe.PaymentIntentStatusProcessing
	s = SettlementFromIntent(pi)
	assert.False(t, s.Settled)
	assert.Zero(t, s.AmountCents)
}

func TestFakeGatewayCancel(t *testing.T) {
	g := NewFakeGateway()
	ctx := context.Background()

	open, err := g.CreateIntent(ctx, 100, "pkr", nil)
	require.NoError(t, err)
	require.NoError(t, g.CancelIntent(ctx, open.Reference))
	require.NoError(t, g.CancelIntent(ctx, open.Reference), "canceling twice succeeds")
	assert.False(t, g.Settle(open.Reference), "a canceled intent cannot be paid")
	st, err := g.SettlementStatus(ctx, open.Reference)
	require.NoError(t, err)
	assert.False(t, st.Settled)
	assert.Equal(t, "canceled", st.Status)

	paid, err := g.CreateIntent(ctx, 100, "pkr", nil)
	require.NoError(t, err)
	require.True(t, g.Settle(paid.Reference))
	assert.ErrorIs(t, g.CancelIntent(ctx, paid.Reference), ErrIntentSettled)

	assert.ErrorIs(t, g.CancelIntent(ctx, "pi_nope"), ErrIntentNotFound)
}

func TestCancelOutcome(t *testing.T) {
	cause := errors.New("unexpected state")
	assert.NoError(t, cancelOutcome(stripe.PaymentIntentStatusCanceled, cause))
	assert.ErrorIs(t, cancelOutcome(stripe.PaymentIntentStatusSucceeded, cause), ErrIntentSettled)
	assert.Equal(t, cause, cancelOutcome(stripe.PaymentIntentStatusProcessing, cause))
}
