package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway is an in-memory Gateway.  Intents start unsettled and are
// settled explicitly with Settle, which lets local environments and
// tests drive the whole booking flow without a provider account.
type FakeGateway struct {
	mu      sync.Mutex
	intents map[string]*fakeIntent
	// Err, when set, is returned by every call to simulate an outage.
	Err error
}

type fakeIntent struct {
	intent   Intent
	metadata map[string]string
	settled  bool
	canceled bool
	received int64
}

// NewFakeGateway returns an empty FakeGateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{intents: make(map[string]*fakeIntent)}
}

func (g *FakeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return Intent{}, g.Err
	}
	ref := "pi_fake_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	in := Intent{
		Reference:    ref,
		ClientSecret: ref + "_secret",
		AmountCents:  amountCents,
		Currency:     strings.ToLower(currency),
	}
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	g.intents[ref] = &fakeIntent{intent: in, metadata: md}
	return in, nil
}

func (g *FakeGateway) SettlementStatus(ctx context.Context, reference string) (Settlement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return Settlement{}, g.Err
	}
	fi, ok := g.intents[reference]
	if !ok {
		return Settlement{}, ErrIntentNotFound
	}
	s := Settlement{Status: "requires_payment_method", Currency: fi.intent.Currency, Metadata: fi.metadata}
	if fi.canceled {
		s.Status = "canceled"
	}
	if fi.settled {
		s.Settled = true
		s.Status = "succeeded"
		s.AmountCents = fi.received
	}
	return s, nil
}

// CancelIntent marks an unsettled intent canceled.
func (g *FakeGateway) CancelIntent(ctx context.Context, reference string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	fi, ok := g.intents[reference]
	switch {
	case !ok:
		return ErrIntentNotFound
	case fi.settled:
		return ErrIntentSettled
	}
	fi.canceled = true
	return nil
}

// Settle marks an intent as paid in full.  It reports false for an
// unknown or canceled reference.
func (g *FakeGateway) Settle(reference string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	fi, ok := g.intents[reference]
	if !ok || fi.canceled {
		return false
	}
	fi.settled = true
	fi.received = fi.intent.AmountCents
	return true
}

// SettleExternal registers an already settled intent that was not created
// through this gateway, e.g. a payment confirmed by a client SDK.
func (g *FakeGateway) SettleExternal(reference string, amountCents int64, currency string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[reference] = &fakeIntent{
		intent:   Intent{Reference: reference, AmountCents: amountCents, Currency: strings.ToLower(currency)},
		settled:  true,
		received: amountCents,
	}
}
