package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadPaymentConfigDefaults(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER", "fake")
	cfg := LoadPaymentConfig()
	assert.Equal(t, "fake", cfg.Provider)
	assert.Equal(t, "pkr", cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 15*time.Minute, cfg.HoldTTL)
}

func TestLoadPaymentConfigOverrides(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDER", "Stripe")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("PAYMENT_GATEWAY_TIMEOUT", "3s")
	t.Setenv("HOLD_TTL", "1h")
	cfg := LoadPaymentConfig()
	assert.Equal(t, "stripe", cfg.Provider)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, time.Hour, cfg.HoldTTL)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadQueueConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")
	cfg := LoadQueueConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "amqp://u:p@broker:5672/", cfg.URL)
	assert.Equal(t, "booking.notifications", cfg.Queue)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.True(t, cfg.TLS)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "off")
	assert.False(t, envBool("X_FLAG", true))
	t.Setenv("X_FLAG", "maybe")
	assert.True(t, envBool("X_FLAG", true))
}
