package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/artisan-escrow-ledger/internal/domain/reputation"
	"github.com/artisan-escrow-ledger/internal/platform/persistence"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// ReputationRepository implements the reputation.Repository interface for PostgreSQL
type ReputationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReputationRepository creates a new PostgreSQL reputation repository
func NewReputationRepository(logger *slog.Logger, db *persistence.PostgresDB) reputation.Repository {
	return &ReputationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *ReputationRepository) WithTx(tx pgx.Tx) reputation.Repository {
	return &ReputationRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateRating stores a rating. The unique constraint on booking_id makes
// ratings write-once; a second insert surfaces as ErrRatingExists.
func (r *ReputationRepository) CreateRating(ctx context.Context, rating *reputation.Rating) error {
	query := `
		INSERT INTO ratings (booking_id, client_id, provider_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		rating.BookingID,
		rating.ClientID,
		rating.ProviderID,
		rating.Score,
		rating.Comment,
		rating.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return reputation.ErrRatingExists{BookingID: rating.BookingID}
		}
		r.logger.Error("Failed to create rating", "booking_id", rating.BookingID, "error", err)
		return fmt.Errorf("failed to create rating: %w", err)
	}

	return nil
}

// GetRatingByBookingID retrieves the rating for a booking.
// Returns ErrRatingNotFound if the booking has not been rated.
func (r *ReputationRepository) GetRatingByBookingID(ctx context.Context, bookingID int64) (*reputation.Rating, error) {
	query := `
		SELECT booking_id, client_id, provider_id, score, comment, created_at
		FROM ratings
		WHERE booking_id = $1
	`

	var rating reputation.Rating
	err := r.querier.QueryRow(ctx, query, bookingID).Scan(
		&rating.BookingID,
		&rating.ClientID,
		&rating.ProviderID,
		&rating.Score,
		&rating.Comment,
		&rating.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reputation.ErrRatingNotFound{BookingID: bookingID}
		}
		r.logger.Error("Failed to get rating", "booking_id", bookingID, "error", err)
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	return &rating, nil
}

// GetProviderReputation returns the provider aggregate, or a zero-valued
// aggregate when the provider has no recorded history.
func (r *ReputationRepository) GetProviderReputation(ctx context.Context, providerID string) (*reputation.ProviderReputation, error) {
	query := `
		SELECT provider_id, completed_count, rating_count, rating_total, updated_at
		FROM provider_reputation
		WHERE provider_id = $1
	`

	var rep reputation.ProviderReputation
	err := r.querier.QueryRow(ctx, query, providerID).Scan(
		&rep.ProviderID,
		&rep.CompletedCount,
		&rep.RatingCount,
		&rep.RatingTotal,
		&rep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &reputation.ProviderReputation{ProviderID: providerID, UpdatedAt: time.Now().UTC()}, nil
		}
		r.logger.Error("Failed to get provider reputation", "provider_id", providerID, "error", err)
		return nil, fmt.Errorf("failed to get provider reputation: %w", err)
	}

	return &rep, nil
}

// ApplyCompletion folds one completed booking into the provider aggregate
func (r *ReputationRepository) ApplyCompletion(ctx context.Context, providerID string) error {
	query := `
		INSERT INTO provider_reputation (provider_id, completed_count, rating_count, rating_total, updated_at)
		VALUES ($1, 1, 0, 0, NOW())
		ON CONFLICT (provider_id)
		DO UPDATE SET completed_count = provider_reputation.completed_count + 1, updated_at = NOW()
	`

	if _, err := r.querier.Exec(ctx, query, providerID); err != nil {
		r.logger.Error("Failed to apply completion to provider reputation", "provider_id", providerID, "error", err)
		return fmt.Errorf("failed to apply completion to provider reputation: %w", err)
	}

	return nil
}

// ApplyRating folds one rating score into the provider aggregate
func (r *ReputationRepository) ApplyRating(ctx context.Context, providerID string, score int) error {
	query := `
		INSERT INTO provider_reputation (provider_id, completed_count, rating_count, rating_total, updated_at)
		VALUES ($1, 0, 1, $2, NOW())
		ON CONFLICT (provider_id)
		DO UPDATE SET rating_count = provider_reputation.rating_count + 1, rating_total = provider_reputation.rating_total + $2, updated_at = NOW()
	`

	if _, err := r.querier.Exec(ctx, query, providerID, score); err != nil {
		r.logger.Error("Failed to apply rating to provider reputation", "provider_id", providerID, "error", err)
		return fmt.Errorf("failed to apply rating to provider reputation: %w", err)
	}

	return nil
}

// MarkEventProcessed records an event id, returning false when the event
// was already applied. Insert-first gives exactly-once aggregate updates
// under at-least-once delivery.
func (r *ReputationRepository) MarkEventProcessed(ctx context.Context, eventID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, processed_at)
		VALUES ($1, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query, eventID)
	if err != nil {
		r.logger.Error("Failed to mark event processed", "event_id", eventID.String(), "error", err)
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
