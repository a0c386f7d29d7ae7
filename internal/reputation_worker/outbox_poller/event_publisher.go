package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/artisan-escrow-ledger/internal/domain/outbox"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
	"github.com/artisan-escrow-ledger/internal/platform/messaging/producers"
)

// EventPublisher publishes outbox messages to the booking events topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent writes one outbox message to Kafka and marks it processed.
// Messages are keyed by booking id so events for one booking stay ordered
// within a partition.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetBookingEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal booking event from outbox payload",
			"outbox_id", message.ID, "booking_id", message.BookingID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	key := strconv.FormatInt(message.BookingID, 10)
	if err := p.producer.Publish(ctx, key, event); err != nil {
		return fmt.Errorf("failed to publish outbox %d to events topic: %w", message.ID, err)
	}

	// Mark outbox message as processed
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "booking_id", message.BookingID, "error", err,
		)
		return fmt.Errorf("publish for outbox %d OK, but failed to mark as PROCESSED: %w", message.ID, err)
	}

	p.logger.Info("Outbox message published and marked as PROCESSED",
		"outbox_id", message.ID,
		"booking_id", message.BookingID,
		"event_type", string(event.Type),
	)
	return nil
}
