package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/artisan-escrow-ledger/internal/domain/shared"
	"github.com/artisan-escrow-ledger/internal/platform/messaging/producers"
	"github.com/artisan-escrow-ledger/internal/reputation_worker/service"
)

// BookingEventHandler handles incoming booking event messages from Kafka
type BookingEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewBookingEventHandler creates a new handler
func NewBookingEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *BookingEventHandler {
	return &BookingEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *BookingEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.BookingEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal booking event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	h.logger.Info("Received booking event for processing",
		"event_id", event.EventID.String(),
		"booking_id", event.BookingID,
		"type", string(event.Type),
	)

	if err := h.processingService.ProcessEvent(ctx, &event); err != nil {
		h.logger.Error("Failed to process booking event",
			"event_id", event.EventID.String(),
			"booking_id", event.BookingID,
			"error", err,
		)
		return fmt.Errorf("processing event %s failed: %w", event.EventID.String(), err)
	}

	h.logger.Info("Successfully processed booking event", "event_id", event.EventID.String())
	return nil // Success, commit offset
}
