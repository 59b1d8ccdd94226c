package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	pkgconfig "github.com/Skotchmaster/shop_checkout/pkg/config"
	pkgdb "github.com/Skotchmaster/shop_checkout/pkg/db"
	"github.com/Skotchmaster/shop_checkout/pkg/events"
	"github.com/Skotchmaster/shop_checkout/pkg/idempotency"
	"github.com/Skotchmaster/shop_checkout/pkg/logging"
	"github.com/Skotchmaster/shop_checkout/pkg/metrics"
	loggingmw "github.com/Skotchmaster/shop_checkout/pkg/middleware/logging"
	"github.com/Skotchmaster/shop_checkout/pkg/search"

	ordercfg "github.com/Skotchmaster/shop_checkout/services/order/internal/config"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/httpserver"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/repo"
	"github.com/Skotchmaster/shop_checkout/services/order/internal/service"
)

func main() {
	pkgconfig.LoadDotEnv("services/order/.env")

	cfg := ordercfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	pool := pkgdb.DefaultPoolOptions()
	pool.MaxOpenConns = cfg.DBMaxOpenConns

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL, pool)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}

	orderRepo := &repo.GormRepo{DB: db}
	if err := orderRepo.Migrate(initCtx); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg, cfg.ServiceName)

	checkout := &service.CheckoutService{
		Repo:        orderRepo,
		Metrics:     metrics.NewCheckoutMetrics(reg, cfg.ServiceName),
		MaxAttempts: cfg.CheckoutMaxAttempts,
	}
	orders := &service.OrderService{Repo: orderRepo}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
	if producer.Enabled() {
		checkout.Events = producer
		orders.Events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	if cfg.RedisAddr != "" {
		rdb, err := idempotency.Dial(initCtx, cfg.RedisAddr)
		if err != nil {
			cancel()
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		checkout.Idempotency = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR is empty, idempotency keys kept in process memory")
		checkout.Idempotency = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	}

	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			cancel()
			log.Fatalf("elasticsearch: %v", err)
		}
		index := search.NewOrderIndex(es, cfg.OrderIndex)
		checkout.Index = index
		orders.Index = index
		orders.Search = index
	} else {
		logger.Warn("search_disabled", "reason", "ES_URL is empty")
	}
	cancel()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger, "/health/live", "/health/ready", "/metrics"))
	e.Use(serverMetrics.Middleware)
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:   &httpserver.OrderHTTP{Checkout: checkout, Orders: orders},
		JWTSecret:      cfg.JWTAccessSecret,
		DB:             orderRepo,
		MetricsHandler: metrics.Handler(reg),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("order_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if err := producer.Close(); err != nil {
		logger.Error("kafka_close_failed", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("order_stopped")
}
