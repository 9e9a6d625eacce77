package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eightball/booking_api/internal/app"
	"github.com/eightball/booking_api/internal/breaker"
	"github.com/eightball/booking_api/internal/cache"
	"github.com/eightball/booking_api/internal/config"
	"github.com/eightball/booking_api/internal/controller"
	"github.com/eightball/booking_api/internal/repository"
	"github.com/eightball/booking_api/internal/service"
	"github.com/eightball/booking_api/internal/shopify"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting booking API",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, "migrations")
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if version, err := migrator.Version(ctx); err == nil {
		logger.Info("Database schema ready", zap.Int64("version", version))
	}
	migrator.Close()

	var c cache.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to ping redis", zap.Error(err))
		}
		defer redisClient.Close()
		c = cache.NewRedisCache(redisClient, logger)
		logger.Info("Using redis cache", zap.String("addr", cfg.RedisAddr))
	} else {
		c = cache.NewMemoryCache()
		logger.Warn("REDIS_ADDR not set, using in-process cache")
	}

	locationRepo := repository.NewLocationRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	shopifyClient := shopify.NewClient(shopify.Config{
		ShopDomain:  cfg.ShopifyShopDomain,
		AccessToken: cfg.ShopifyAccessToken,
		APIVersion:  cfg.ShopifyAPIVersion,
	}, logger)

	breakers := breaker.NewRegistry(cfg.BreakerThreshold, cfg.BreakerCooldown, logger)

	inventoryService := service.NewInventoryService(locationRepo, serviceRepo, shopifyClient, breakers, c, logger)
	availabilityService := service.NewAvailabilityService(locationRepo, serviceRepo, bookingRepo, inventoryService, c, logger)
	bookingService := service.NewBookingService(
		service.NewPgxDB(pool),
		locationRepo,
		serviceRepo,
		bookingRepo,
		inventoryService,
		availabilityService,
		logger,
	)

	recomputer := app.NewRecomputer(availabilityService, locationRepo, logger)
	recomputer.Start(ctx)
	defer recomputer.Stop()

	handler := controller.NewHandler(
		availabilityService,
		bookingService,
		locationRepo,
		serviceRepo,
		recomputer,
		pool,
		logger,
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
