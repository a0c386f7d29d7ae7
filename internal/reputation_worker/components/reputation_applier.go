package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/artisan-escrow-ledger/internal/domain/reputation"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
	"github.com/artisan-escrow-ledger/internal/reputation_worker/service"
)

type ReputationApplierImpl struct {
	reputationRepo reputation.Repository
	logger         *slog.Logger
}

func NewReputationApplier(reputationRepo reputation.Repository, logger *slog.Logger) service.ReputationApplier {
	return &ReputationApplierImpl{
		reputationRepo: reputationRepo,
		logger:         logger,
	}
}

// Apply records the event id and folds the event into the provider's
// aggregate inside the caller's transaction. The processed-event insert
// and the aggregate upsert commit together, so redelivered events are
// detected before they can double-count.
func (a *ReputationApplierImpl) Apply(ctx context.Context, tx pgx.Tx, event *shared.BookingEvent) (bool, error) {
	repo := a.reputationRepo.WithTx(tx)

	applied, err := repo.MarkEventProcessed(ctx, event.EventID)
	if err != nil {
		return false, fmt.Errorf("failed to record event %s: %w", event.EventID.String(), err)
	}
	if !applied {
		a.logger.Info("Booking event already applied (idempotency)",
			"event_id", event.EventID.String(),
			"booking_id", event.BookingID,
		)
		return false, nil
	}

	switch event.Type {
	case shared.EventTypeBookingCompleted:
		if err := repo.ApplyCompletion(ctx, event.ProviderID); err != nil {
			return false, fmt.Errorf("failed to apply completion for provider %s: %w", event.ProviderID, err)
		}
	case shared.EventTypeRatingRecorded:
		if err := repo.ApplyRating(ctx, event.ProviderID, event.Score); err != nil {
			return false, fmt.Errorf("failed to apply rating for provider %s: %w", event.ProviderID, err)
		}
	default:
		return false, shared.ErrInvalidEventType
	}

	return true, nil
}
