package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artisan-escrow-ledger/internal/booking_api/middleware"
	"github.com/artisan-escrow-ledger/internal/booking_api/service"
	"github.com/artisan-escrow-ledger/internal/domain/booking"
	"github.com/artisan-escrow-ledger/internal/domain/reputation"
)

// ReputationHandler handles HTTP requests for ratings and reputation reads
type ReputationHandler struct {
	reputationService service.ReputationService
	logger            *slog.Logger
}

// NewReputationHandler creates a new reputation handler
func NewReputationHandler(logger *slog.Logger, reputationService service.ReputationService) *ReputationHandler {
	return &ReputationHandler{
		reputationService: reputationService,
		logger:            logger,
	}
}

// CreateRating records the client's write-once rating for a completed booking
func (h *ReputationHandler) CreateRating(c *gin.Context) {
	caller, ok := middleware.GetParty(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	id, err := parseBookingID(c)
	if err != nil {
		RespondBadRequest(c, "Invalid booking ID")
		return
	}

	var req CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rating, err := h.reputationService.RateBooking(c.Request.Context(), caller, id, req.Score, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound{}):
			RespondNotFound(c, "Booking not found")
		case errors.Is(err, service.ErrNotBookingClient):
			RespondForbidden(c, "Only the booking's client can rate it")
		case errors.Is(err, service.ErrBookingNotCompleted):
			RespondConflict(c, "Booking must be completed before rating")
		case errors.Is(err, reputation.ErrRatingExists{}):
			RespondConflict(c, "Booking already has a rating")
		case errors.Is(err, reputation.ErrInvalidScore):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to record rating", "booking_id", id, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, RatingResponse{
		BookingID:  rating.BookingID,
		ClientID:   rating.ClientID,
		ProviderID: rating.ProviderID,
		Score:      rating.Score,
		Comment:    rating.Comment,
		CreatedAt:  rating.CreatedAt.Format(time.RFC3339),
	})
}

// GetProviderReputation returns a provider's aggregate reputation
func (h *ReputationHandler) GetProviderReputation(c *gin.Context) {
	providerID := c.Param("id")
	if providerID == "" {
		RespondBadRequest(c, "Invalid provider ID")
		return
	}

	rep, err := h.reputationService.GetProviderReputation(c.Request.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to get provider reputation", "provider_id", providerID, "error", err)
		RespondInternalError(c)
		return
	}

	resp := ReputationResponse{
		ProviderID:     rep.ProviderID,
		CompletedCount: rep.CompletedCount,
		RatingCount:    rep.RatingCount,
		AverageScore:   rep.AverageScore(),
	}
	if !rep.UpdatedAt.IsZero() {
		resp.UpdatedAt = rep.UpdatedAt.Format(time.RFC3339)
	}

	RespondOK(c, resp)
}
