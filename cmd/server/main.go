package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"drivelink/internal/app"
	"drivelink/internal/config"
	"drivelink/internal/gateway/paystack"
	"drivelink/internal/handler"
	internalRedis "drivelink/internal/redis"
	"drivelink/internal/repository/postgres"
	"drivelink/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, sweeper := wireServer(db, redisClient, nrApp, cfg)

	// Start the auto-completion sweeper.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)
	log.Printf("Sweeper running every %s (grace period %s)", cfg.Escrow.SweepInterval, cfg.Escrow.ConfirmationGrace)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and sweeper.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.Sweeper) {
	// Initialize Redis stores.
	reservationStore := internalRedis.NewReservationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	txRepo := postgres.NewTransactionRepository(db)
	disputeRepo := postgres.NewDisputeRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)

	// Initialize gateway and services.
	gateway := paystack.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL)
	notifier := service.NewNotificationService()
	recipients := service.NewDriverRecipientRegistry(driverRepo)
	commission := config.NewCommissionSource(cfg.Escrow.CommissionPercent)

	settlementService := service.NewSettlementService(bookingRepo, txRepo, driverRepo, recipients, commission, gateway, notifier)
	completionService := service.NewCompletionService(bookingRepo, driverRepo, disputeRepo, settlementService, notifier)
	finalizer := service.NewPaymentFinalizer(bookingRepo, txRepo, reservationStore, notifier)
	bookingService := service.NewBookingService(bookingRepo, txRepo, reservationStore, cacheStore, gateway, notifier, cfg.Escrow.ReservationTTL)
	disputeService := service.NewDisputeService(disputeRepo, bookingRepo, completionService)
	payoutService := service.NewPayoutService(payoutRepo, txRepo, recipients, gateway, notifier)
	sweeper := service.NewSweeper(bookingRepo, disputeRepo, completionService, lockStore, cfg.Escrow.SweepInterval, cfg.Escrow.ConfirmationGrace)

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userRepo)
	driverHandler := handler.NewDriverHandler(driverRepo, payoutService)
	bookingHandler := handler.NewBookingHandler(bookingService, completionService, cacheStore)
	paymentHandler := handler.NewPaymentHandler(bookingService, finalizer, gateway)
	webhookHandler := handler.NewWebhookHandler(finalizer, cfg.Paystack.SecretKey)
	disputeHandler := handler.NewDisputeHandler(disputeService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:    userHandler,
		DriverHandler:  driverHandler,
		BookingHandler: bookingHandler,
		PaymentHandler: paymentHandler,
		WebhookHandler: webhookHandler,
		DisputeHandler: disputeHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweeper
}
