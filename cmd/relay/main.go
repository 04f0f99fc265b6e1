package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/openkra/etims-relay/internal/audit"
	"github.com/openkra/etims-relay/internal/config"
	"github.com/openkra/etims-relay/internal/handler"
	"github.com/openkra/etims-relay/internal/infra/postgresql"
	"github.com/openkra/etims-relay/internal/infra/postgresql/migrations"
	infraredis "github.com/openkra/etims-relay/internal/infra/redis"
	"github.com/openkra/etims-relay/internal/notify"
	"github.com/openkra/etims-relay/internal/observability"
	"github.com/openkra/etims-relay/internal/service"
	"github.com/openkra/etims-relay/internal/tracker"
	"github.com/openkra/etims-relay/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	metrics := observability.NewMetrics()

	auditRepo, err := audit.NewGormRepository(db)
	if err != nil {
		logger.Fatal("audit repository init failed", zap.Error(err))
	}

	syncTracker, err := tracker.NewRedisTracker(rdb)
	if err != nil {
		logger.Fatal("sync tracker init failed", zap.Error(err))
	}

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter init failed", zap.Error(err))
	}

	relayService, err := service.NewRelayService(
		transport.NewClient(cfg.RequestTimeout()),
		auditRepo,
		syncTracker,
		limiter,
		notify.NewLogAlerter(logger),
		metrics,
		cfg,
		logger,
	)
	if err != nil {
		logger.Fatal("relay service init failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "etims-relay",
		ErrorHandler: handler.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(metrics.Handler())(c.Context())
		return nil
	})

	if err := handler.RegisterRelayRoutes(app, relayService); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("etims-relay api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
