package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("ORDER_EVENTS_TOPIC", "")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("CHECKOUT_MAX_ATTEMPTS", "5")

	cfg := Load()

	assert.Equal(t, "order", cfg.ServiceName)
	assert.Equal(t, "order_events", cfg.OrderEventsTopic)
	assert.Equal(t, "orders", cfg.OrderIndex)
	assert.Equal(t, 90*time.Minute, cfg.IdempotencyTTL)
	assert.Equal(t, 5, cfg.CheckoutMaxAttempts)
	assert.Equal(t, []byte("secret"), cfg.JWTAccessSecret)
}
