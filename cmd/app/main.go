package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payments_backend/internal/config"
	"payments_backend/internal/db"
	httpServer "payments_backend/internal/http"
	"payments_backend/internal/http/handlers"
	"payments_backend/internal/http/middleware"
	"payments_backend/internal/logger"
	"payments_backend/internal/notify"
	"payments_backend/internal/razorpay"
	"payments_backend/internal/repository"
	"payments_backend/internal/service"
	"payments_backend/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	store, closeStore := openStore(cfg)
	defer closeStore()

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := ws.NewHub()
	go hub.Run(ctx)

	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Timeout:   cfg.RazorpayTimeout,
	})

	events := service.Publishers{hub}
	if cfg.TelegramBotToken != "" && len(cfg.AdminTelegramIDs) > 0 {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.AdminTelegramIDs)
		if err != nil {
			logger.Error("telegram notifier disabled", "error", err)
		} else {
			defer notifier.Stop()
			events = append(events, notifier)
		}
	}

	payments := service.NewPaymentService(store, gateway, service.PaymentConfig{
		KeyID:    gateway.KeyID(),
		Currency: cfg.Currency,
	}, events)
	queries := service.NewQueryService(store)

	health := handlers.NewHealthHandler(store, version)
	if rdb != nil {
		health.WithCheck("redis", handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}

	deps := httpServer.Deps{
		Handler:       handlers.NewHandler(payments, queries),
		Health:        health,
		Hub:           hub,
		RateLimiter:   middleware.NewRateLimiter(rdb, cfg.APIRateLimit, cfg.APIRateWindow),
		AllowedOrigin: cfg.AllowedOrigin,
	}
	if cfg.AuthRequired {
		deps.Auth = service.NewJWT(cfg.JWTSecret, service.DefaultTokenTTL)
		logger.Info("bearer authentication enabled on payment routes")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// openStore picks the transaction store for the configured driver.
func openStore(cfg *config.Config) (repository.Store, func()) {
	if cfg.DBDriver == config.DriverSQLite {
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open sqlite database", "path", cfg.SQLitePath, "error", err)
		}
		repo := repository.NewGormPaymentRepository(gdb)
		if err := repo.AutoMigrate(); err != nil {
			logger.Fatal("failed to migrate sqlite schema", "error", err)
		}
		return repo, func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}

	pool := db.Connect(cfg.DatabaseURL)
	return repository.NewPaymentRepository(pool), pool.Close
}
