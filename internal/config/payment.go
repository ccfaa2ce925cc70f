package config

import (
	"log"
	"strings"
	"time"
)

// PaymentConfig selects and configures the payment gateway.
//
// Provider "stripe" requires STRIPE_SECRET_KEY; "fake" keeps payments in
// memory and is meant for local development and tests.  HoldTTL bounds
// how long an unpaid checkout stays pending before it is discarded.
type PaymentConfig struct {
	Provider       string
	StripeKey      string
	WebhookSecret  string
	Currency       string
	GatewayTimeout time.Duration
	HoldTTL        time.Duration
}

// LoadPaymentConfig reads PAYMENT_* and STRIPE_* variables.
func LoadPaymentConfig() PaymentConfig {
	cfg := PaymentConfig{
		Provider:       strings.ToLower(envStr("PAYMENT_PROVIDER", "stripe")),
		StripeKey:      envStr("STRIPE_SECRET_KEY", ""),
		WebhookSecret:  envStr("STRIPE_WEBHOOK_SECRET", ""),
		Currency:       strings.ToLower(envStr("PAYMENT_CURRENCY", "pkr")),
		GatewayTimeout: envDur("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
		HoldTTL:        envDur("HOLD_TTL", 15*time.Minute),
	}
	if cfg.Provider == "stripe" && cfg.StripeKey == "" {
		cfg.StripeKey = must("STRIPE_SECRET_KEY")
	}
	if cfg.Provider != "stripe" && cfg.Provider != "fake" {
		log.Fatalf("invalid PAYMENT_PROVIDER: %q", cfg.Provider)
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 10 * time.Second
	}
	return cfg
}
