package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/artisan-escrow-ledger/internal/domain/shared"
	"github.com/artisan-escrow-ledger/internal/platform/persistence"
)

type ProcessingServiceImpl struct {
	pgDB      *persistence.PostgresDB
	validator EventValidator
	applier   ReputationApplier
	logger    *slog.Logger
}

func NewProcessingService(
	pgDB *persistence.PostgresDB,
	validator EventValidator,
	applier ReputationApplier,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		pgDB:      pgDB,
		validator: validator,
		applier:   applier,
		logger:    logger,
	}
}

// ProcessEvent handles the core logic for folding one booking event into
// the provider's reputation aggregate.
func (s *ProcessingServiceImpl) ProcessEvent(ctx context.Context, event *shared.BookingEvent) error {
	logger := s.logger.With("event_id", event.EventID.String())

	logger.Info("Processing booking event", "type", string(event.Type), "booking_id", event.BookingID)

	// 1. Validate the event. Malformed events are acknowledged, not retried.
	if err := s.validator.Validate(ctx, event); err != nil {
		logger.Error("Booking event validation failed", "error", err)
		return nil
	}

	// 2. Begin database transaction
	var tx pgx.Tx
	tx, err := s.pgDB.Pool().Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin database transaction", "error", err)
		return fmt.Errorf("failed to begin DB transaction for event %s: %w", event.EventID.String(), err)
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered, rolling back transaction", "panic", p)
			_ = tx.Rollback(ctx)
			panic(p) // Re-panic
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error("Failed to rollback transaction after error", "rollback_error", rbErr, "original_error", err)
			}
		}
	}()

	// 3. Record the event id and apply the aggregate change atomically
	applied, err := s.applier.Apply(ctx, tx, event)
	if err != nil {
		return err // Let the defer handle rollback, Kafka retries
	}

	// 4. Commit transaction
	if err = tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit database transaction", "error", err)
		return fmt.Errorf("failed to commit DB transaction for event %s: %w", event.EventID.String(), err)
	}

	if applied {
		logger.Info("Booking event applied to reputation aggregate",
			"type", string(event.Type),
			"provider_id", event.ProviderID,
		)
	}
	return nil
}
