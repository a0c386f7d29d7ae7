package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/artisan-escrow-ledger/internal/domain/shared"
	"github.com/artisan-escrow-ledger/internal/reputation_worker/service"
)

type EventValidatorImpl struct {
	logger *slog.Logger
}

func NewEventValidator(logger *slog.Logger) service.EventValidator {
	return &EventValidatorImpl{
		logger: logger,
	}
}

// Validate checks booking event validity. Invalid events are malformed
// producer output, not transient failures, so callers acknowledge them
// rather than retry.
func (v *EventValidatorImpl) Validate(ctx context.Context, event *shared.BookingEvent) error {
	if event.EventID == uuid.Nil {
		v.logger.Error("Booking event missing event id", "booking_id", event.BookingID)
		return shared.ErrInvalidEventType
	}

	switch event.Type {
	case shared.EventTypeBookingCompleted, shared.EventTypeRatingRecorded:
	default:
		v.logger.Error("Unknown booking event type", "event_id", event.EventID.String(), "type", string(event.Type))
		return shared.ErrInvalidEventType
	}

	if event.BookingID <= 0 {
		v.logger.Error("Invalid booking id on event", "event_id", event.EventID.String(), "booking_id", event.BookingID)
		return fmt.Errorf("booking id must be positive: %d", event.BookingID)
	}
	if event.ProviderID == "" {
		v.logger.Error("Missing provider id on event", "event_id", event.EventID.String())
		return fmt.Errorf("event %s has no provider id", event.EventID.String())
	}
	if event.Type == shared.EventTypeRatingRecorded && (event.Score < 1 || event.Score > 5) {
		v.logger.Error("Invalid score on rating event", "event_id", event.EventID.String(), "score", event.Score)
		return fmt.Errorf("rating score out of range: %d", event.Score)
	}

	return nil
}
