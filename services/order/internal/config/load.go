package config

import (
	"time"

	"github.com/Skotchmaster/shop_checkout/pkg/config"
)

type ServiceConfig struct {
	config.Config

	OrderEventsTopic    string
	OrderIndex          string
	IdempotencyTTL      time.Duration
	CheckoutMaxAttempts int
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	sc := ServiceConfig{
		Config:              cfg,
		OrderEventsTopic:    config.EnvDefault("ORDER_EVENTS_TOPIC", "order_events"),
		OrderIndex:          config.EnvDefault("ORDER_INDEX", "orders"),
		IdempotencyTTL:      config.EnvDurationDefault("IDEMPOTENCY_TTL", 24*time.Hour),
		CheckoutMaxAttempts: config.EnvIntDefault("CHECKOUT_MAX_ATTEMPTS", 3),
	}
	config.MustPositive(sc.CheckoutMaxAttempts, "CHECKOUT_MAX_ATTEMPTS")
	config.MustPositive(sc.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")
	return sc
}
