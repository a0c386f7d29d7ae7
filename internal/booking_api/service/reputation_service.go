package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/artisan-escrow-ledger/internal/domain/booking"
	"github.com/artisan-escrow-ledger/internal/domain/outbox"
	"github.com/artisan-escrow-ledger/internal/domain/reputation"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// ReputationServiceImpl implements the ReputationService interface
type ReputationServiceImpl struct {
	db             TxRunner
	bookingRepo    booking.Repository
	reputationRepo reputation.Repository
	outboxRepo     outbox.Repository
	logger         *slog.Logger
}

// NewReputationService creates a new reputation service
func NewReputationService(logger *slog.Logger, db TxRunner, bookingRepo booking.Repository, reputationRepo reputation.Repository, outboxRepo outbox.Repository) ReputationService {
	return &ReputationServiceImpl{
		db:             db,
		bookingRepo:    bookingRepo,
		reputationRepo: reputationRepo,
		outboxRepo:     outboxRepo,
		logger:         logger,
	}
}

// RateBooking records the client's rating for a completed booking. The
// rating and its outbox event commit in one transaction; the unique index
// on booking_id keeps ratings write-once under concurrent submissions.
func (s *ReputationServiceImpl) RateBooking(ctx context.Context, caller shared.Party, bookingID int64, score int, comment string) (*reputation.Rating, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if b.Status != booking.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}
	if caller.ID != b.ClientID {
		s.logger.Warn("Rating attempt by non-client",
			"booking_id", bookingID,
			"caller", caller.ID,
		)
		return nil, ErrNotBookingClient
	}

	rating, err := reputation.NewRating(bookingID, b.ClientID, b.ProviderID, score, comment)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.reputationRepo.WithTx(tx).CreateRating(ctx, rating); err != nil {
			return err
		}

		event := shared.NewRatingRecordedEvent(bookingID, b.ClientID, b.ProviderID, score)
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return fmt.Errorf("failed to build rating event: %w", err)
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Rating recorded",
		"booking_id", bookingID,
		"provider_id", b.ProviderID,
		"score", score,
	)
	return rating, nil
}

// GetProviderReputation returns the provider's aggregate
func (s *ReputationServiceImpl) GetProviderReputation(ctx context.Context, providerID string) (*reputation.ProviderReputation, error) {
	return s.reputationRepo.GetProviderReputation(ctx, providerID)
}
