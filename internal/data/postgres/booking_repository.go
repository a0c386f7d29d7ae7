// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the booking side of the
// marketplace.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/artisan-escrow-ledger/internal/domain/booking"
	"github.com/artisan-escrow-ledger/internal/platform/persistence"
)

// BookingRepository implements the booking.Repository interface for PostgreSQL
type BookingRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBookingRepository creates a new PostgreSQL booking repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewBookingRepository(logger *slog.Logger, db *persistence.PostgresDB) booking.Repository {
	return &BookingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *BookingRepository) WithTx(tx pgx.Tx) booking.Repository {
	return &BookingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const bookingColumns = `id, client_id, provider_id, service_description, estimated_hours, amount, status, scheduled_at, location, notes, created_at, updated_at`

// Create stores a new booking row keyed by its custody id
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	query := `
		INSERT INTO bookings (id, client_id, provider_id, service_description, estimated_hours, amount, status, scheduled_at, location, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		b.ID,
		b.ClientID,
		b.ProviderID,
		b.ServiceDescription,
		b.EstimatedHours,
		b.Amount,
		b.Status,
		b.ScheduledAt,
		b.Location,
		b.Notes,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create booking", "error", err)
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by its id
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`

	b, err := r.scanBooking(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound{ID: id}
		}
		r.logger.Error("Failed to get booking", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return b, nil
}

// GetForUpdate obtains a row lock on the booking so one lifecycle
// transition at a time runs per booking id. Must be used inside a
// transaction.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`

	b, err := r.scanBooking(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrBookingNotFound{ID: id}
		}
		r.logger.Error("Failed to lock booking for update", "id", id, "error", err)
		return nil, fmt.Errorf("failed to lock booking for update: %w", err)
	}

	return b, nil
}

// UpdateStatus persists a lifecycle status change. The caller supplies the
// update timestamp so the row and the in-memory booking agree.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status booking.Status, updatedAt time.Time) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, updatedAt, id)
	if err != nil {
		r.logger.Error("Failed to update booking status", "id", id, "status", string(status), "error", err)
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return booking.ErrBookingNotFound{ID: id}
	}

	return nil
}

// ListByClient retrieves a page of bookings where the given party is the client
func (r *BookingRepository) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryBookings(ctx, query, clientID, limit, offset)
}

// ListByProvider retrieves a page of bookings where the given party is the provider
func (r *BookingRepository) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryBookings(ctx, query, providerID, limit, offset)
}

// List retrieves a page of all bookings, newest first
func (r *BookingRepository) List(ctx context.Context, limit, offset int) ([]*booking.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryBookings(ctx, query, limit, offset)
}

// CountByClient returns the number of bookings where the given party is the client
func (r *BookingRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE client_id = $1`, clientID).Scan(&count); err != nil {
		r.logger.Error("Failed to count bookings by client", "client_id", clientID, "error", err)
		return 0, fmt.Errorf("failed to count bookings by client: %w", err)
	}
	return count, nil
}

// CountByProvider returns the number of bookings where the given party is the provider
func (r *BookingRepository) CountByProvider(ctx context.Context, providerID string) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE provider_id = $1`, providerID).Scan(&count); err != nil {
		r.logger.Error("Failed to count bookings by provider", "provider_id", providerID, "error", err)
		return 0, fmt.Errorf("failed to count bookings by provider: %w", err)
	}
	return count, nil
}

// Count returns the total number of bookings
func (r *BookingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count); err != nil {
		r.logger.Error("Failed to count bookings", "error", err)
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*booking.Booking, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list bookings", "error", err)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*booking.Booking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			r.logger.Error("Failed to scan booking row", "error", err)
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over booking rows", "error", err)
		return nil, fmt.Errorf("error iterating over booking rows: %w", err)
	}

	return bookings, nil
}

func (r *BookingRepository) scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.ProviderID,
		&b.ServiceDescription,
		&b.EstimatedHours,
		&b.Amount,
		&b.Status,
		&b.ScheduledAt,
		&b.Location,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
