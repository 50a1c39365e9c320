package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/ikkim/storefront-bff/config"
	"github.com/ikkim/storefront-bff/internal/app/controller"
	"github.com/ikkim/storefront-bff/internal/app/repository"
	"github.com/ikkim/storefront-bff/internal/app/service"
	"github.com/ikkim/storefront-bff/internal/db"
	"github.com/ikkim/storefront-bff/internal/middleware"
	"github.com/ikkim/storefront-bff/internal/router"
	"github.com/ikkim/storefront-bff/internal/scheduler"
	ws "github.com/ikkim/storefront-bff/internal/websocket"
	"github.com/ikkim/storefront-bff/pkg/cartapi"
	"github.com/ikkim/storefront-bff/pkg/logger"
	"github.com/ikkim/storefront-bff/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Storefront BFF", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"cart_api":    cfg.CartAPI.BaseURL,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Guest carts survive restarts only when Redis is reachable
	var guestCarts service.GuestCartPersister
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, guest carts will not be persisted", map[string]interface{}{
			"addr":  cfg.Redis.Addr(),
			"error": err.Error(),
		})
	} else {
		guestCarts = repository.NewGuestCartRepository(redis.GetClient(), cfg.Session.GuestCartTTL)
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	// Commerce backend client
	cartClient, err := cartapi.NewClient(cartapi.Config{
		BaseURL: cfg.CartAPI.BaseURL,
		Timeout: cfg.CartAPI.Timeout,
	}, nil)
	if err != nil {
		logger.Fatal("Failed to create cart API client", err)
	}

	// Notification hub
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize repositories
	draftRepo := repository.NewOrderDraftRepository(db.GetDB())

	// Initialize services
	sessions := service.NewSessionManager(
		service.ClientBackend(cartClient),
		hub,
		guestCarts,
		service.SessionManagerConfig{
			LoginPath:   cfg.Server.LoginPath,
			JWTSecret:   cfg.JWT.Secret,
			IdleTimeout: cfg.Session.IdleTimeout,
		},
	)
	checkoutService := service.NewCheckoutService(draftRepo)

	// Initialize controllers
	secureCookie := cfg.Server.Environment == "production"
	cartController := controller.NewCartController(cartClient)
	guestCartController := controller.NewGuestCartController(cartClient)
	checkoutController := controller.NewCheckoutController(checkoutService, cfg.Server.LoginPath)
	sessionController := controller.NewSessionController(sessions, secureCookie)
	notificationController := controller.NewNotificationController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	sessionMiddleware := middleware.NewSessionMiddleware(sessions, cfg.Session.CookieName, secureCookie)
	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)

	// Start idle session sweeper
	sweeper := scheduler.NewSessionSweeper(sessions, cfg.Session.SweepSchedule)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", err)
	}
	defer sweeper.Stop()

	// Setup router
	r := router.NewRouter(
		cartController,
		guestCartController,
		checkoutController,
		sessionController,
		notificationController,
		sessionMiddleware,
		rateLimiter,
		cfg,
	)
	r.AddHealthCheck(router.HealthCheck{
		Name:     "database",
		Required: true,
		Check: func(ctx context.Context) error {
			return db.Ping(ctx, db.GetDB())
		},
	})
	if guestCarts != nil {
		r.AddHealthCheck(router.HealthCheck{Name: "redis", Check: redis.Ping})
	}
	engine := r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully", map[string]interface{}{
		"sessions": sessions.Len(),
	})
}
