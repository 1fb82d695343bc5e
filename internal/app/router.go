package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"drivelink/internal/handler"
	"drivelink/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler    *handler.UserHandler
	DriverHandler  *handler.DriverHandler
	BookingHandler *handler.BookingHandler
	PaymentHandler *handler.PaymentHandler
	WebhookHandler *handler.WebhookHandler
	DisputeHandler *handler.DisputeHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.POST("/:id/recipient", deps.DriverHandler.UpdateRecipient)
			drivers.POST("/:id/withdraw", deps.DriverHandler.Withdraw)
			drivers.GET("/:id/payouts", deps.DriverHandler.ListPayouts)
		}

		// Reservation intake.
		v1.POST("/reservations", deps.BookingHandler.CreateReservation)

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/accept", deps.BookingHandler.Accept)
			bookings.POST("/:id/start", deps.BookingHandler.Start)
			bookings.POST("/:id/cancel", deps.BookingHandler.Cancel)
			bookings.POST("/:id/confirm/client", deps.BookingHandler.ConfirmAsClient)
			bookings.POST("/:id/confirm/driver", deps.BookingHandler.ConfirmAsDriver)
		}

		// Payment routes: webhook, redirect callback, and manual poll all
		// converge on the same finalizer.
		payments := v1.Group("/payments")
		{
			payments.POST("/initialize", deps.PaymentHandler.Initialize)
			payments.POST("/webhook", deps.WebhookHandler.HandleEvent)
			payments.GET("/callback", deps.PaymentHandler.Callback)
			payments.POST("/:reference/verify", deps.PaymentHandler.Verify)
		}

		// Dispute routes.
		disputes := v1.Group("/disputes")
		{
			disputes.POST("", deps.DisputeHandler.Open)
			disputes.POST("/:id/resolve", deps.DisputeHandler.Resolve)
		}
	}

	return router
}
