package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// ProcessingService defines the interface for processing booking events.
type ProcessingService interface {
	ProcessEvent(ctx context.Context, event *shared.BookingEvent) error
}

// EventValidator validates booking events before processing
type EventValidator interface {
	Validate(ctx context.Context, event *shared.BookingEvent) error
}

// ReputationApplier folds one booking event into the provider's aggregate.
// Returns false without error when the event was already applied.
type ReputationApplier interface {
	Apply(ctx context.Context, tx pgx.Tx, event *shared.BookingEvent) (bool, error)
}
