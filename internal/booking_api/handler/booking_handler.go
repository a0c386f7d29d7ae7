package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artisan-escrow-ledger/internal/booking_api/middleware"
	"github.com/artisan-escrow-ledger/internal/booking_api/service"
	"github.com/artisan-escrow-ledger/internal/domain/booking"
	"github.com/artisan-escrow-ledger/internal/domain/custody"
)

// BookingHandler handles HTTP requests for booking operations
type BookingHandler struct {
	bookingService service.BookingService
	logger         *slog.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(logger *slog.Logger, bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// Create handles creation of a new booking, opening the custody record
func (h *BookingHandler) Create(c *gin.Context) {
	caller, ok := middleware.GetParty(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.bookingService.CreateBooking(c.Request.Context(), caller, service.CreateBookingParams{
		ProviderID:         req.ProviderID,
		ServiceDescription: req.ServiceDescription,
		Amount:             req.Amount,
		EstimatedHours:     req.EstimatedHours,
		ScheduledAt:        req.ScheduledAt,
		Location:           req.Location,
		Notes:              req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotClient):
			RespondForbidden(c, "Only clients can create bookings")
		case errors.Is(err, custody.ErrInvalidAmount),
			errors.Is(err, booking.ErrInvalidAmount),
			errors.Is(err, booking.ErrEmptyProvider),
			errors.Is(err, booking.ErrSameClientProvider),
			errors.Is(err, booking.ErrEmptyDescription):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create booking", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapBookingToResponse(b, ""))
}

// GetByID retrieves a booking along with its current custody status.
// Only the booking's own parties and administrators may read it.
func (h *BookingHandler) GetByID(c *gin.Context) {
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

	b, err := h.bookingService.GetBookingByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound{}) {
			RespondNotFound(c, "Booking not found")
			return
		}
		h.logger.Error("Failed to get booking", "booking_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	// A stranger learns nothing, not even that the booking exists
	if caller.ID != b.ClientID && caller.ID != b.ProviderID && !caller.IsAdmin() {
		RespondNotFound(c, "Booking not found")
		return
	}

	custodyStatus := ""
	if record, err := h.bookingService.GetCustodyByBookingID(c.Request.Context(), id); err == nil {
		custodyStatus = string(record.Status)
	}

	RespondOK(c, mapBookingToResponse(b, custodyStatus))
}

// List returns the caller's bookings with pagination
func (h *BookingHandler) List(c *gin.Context) {
	caller, ok := middleware.GetParty(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), caller, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list bookings", "caller", caller.ID, "error", err)
		RespondInternalError(c)
		return
	}

	response := BookingListResponse{Bookings: make([]BookingResponse, 0, len(bookings))}
	for _, b := range bookings {
		response.Bookings = append(response.Bookings, mapBookingToResponse(b, ""))
	}

	RespondWithPaginatedData(c, 200, response, params.Page, params.PerPage, int(total))
}

// UpdateStatus drives one lifecycle transition for a booking
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
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

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	to, err := booking.ParseStatus(req.Status)
	if err != nil {
		RespondBadRequest(c, "Invalid booking status")
		return
	}

	b, err := h.bookingService.ChangeStatus(c.Request.Context(), id, to, caller)
	if err != nil {
		h.respondTransitionError(c, id, err)
		return
	}

	RespondOK(c, mapBookingToResponse(b, ""))
}

// respondTransitionError maps lifecycle and custody failures onto HTTP
// status codes. Authorization failures are checked before state failures so
// a forbidden caller learns nothing about the record's state.
func (h *BookingHandler) respondTransitionError(c *gin.Context, id int64, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound{}),
		errors.Is(err, custody.ErrRecordNotFound{}),
		errors.Is(err, custody.ErrRecordExpired{}):
		RespondNotFound(c, "Booking not found")
	case errors.Is(err, booking.ErrUnauthorizedTransition{}),
		errors.Is(err, custody.ErrUnauthorized{}):
		RespondForbidden(c, "Not authorized for this transition")
	case errors.Is(err, booking.ErrTransitionNotAllowed{}),
		errors.Is(err, custody.ErrInvalidState{}):
		RespondConflict(c, err.Error())
	default:
		h.logger.Error("Failed to apply booking transition", "booking_id", id, "error", err)
		RespondInternalError(c)
	}
}

// parseBookingID extracts the numeric booking id from the path
func parseBookingID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// mapBookingToResponse maps a booking entity to a booking response DTO
func mapBookingToResponse(b *booking.Booking, custodyStatus string) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		ProviderID:         b.ProviderID,
		ServiceDescription: b.ServiceDescription,
		EstimatedHours:     b.EstimatedHours,
		Amount:             b.Amount,
		Status:             string(b.Status),
		CustodyStatus:      custodyStatus,
		Location:           b.Location,
		Notes:              b.Notes,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.Format(time.RFC3339),
	}
	if !b.ScheduledAt.IsZero() {
		resp.ScheduledAt = b.ScheduledAt.Format(time.RFC3339)
	}
	return resp
}
