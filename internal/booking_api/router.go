package booking_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artisan-escrow-ledger/internal/booking_api/handler"
	"github.com/artisan-escrow-ledger/internal/booking_api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	tokenSecret string,
	bookingHandler *handler.BookingHandler,
	reputationHandler *handler.ReputationHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints, all behind token auth
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(tokenSecret))
	{
		// Booking lifecycle operations
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.GetByID)
			bookings.PUT("/:id/status", bookingHandler.UpdateStatus)
			bookings.POST("/:id/rating", reputationHandler.CreateRating)
		}

		// Reputation reads
		providers := v1.Group("/providers")
		{
			providers.GET("/:id/reputation", reputationHandler.GetProviderReputation)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
