package reputation

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages ratings and per-provider aggregates
type Repository interface {
	// CreateRating stores a rating. Returns ErrRatingExists if the booking
	// already has one; ratings are write-once.
	CreateRating(ctx context.Context, rating *Rating) error
	GetRatingByBookingID(ctx context.Context, bookingID int64) (*Rating, error)

	// GetProviderReputation returns the aggregate, or a zero-valued
	// aggregate when the provider has no history yet.
	GetProviderReputation(ctx context.Context, providerID string) (*ProviderReputation, error)

	// ApplyCompletion and ApplyRating fold one event into the aggregate
	// with an atomic upsert.
	ApplyCompletion(ctx context.Context, providerID string) error
	ApplyRating(ctx context.Context, providerID string, score int) error

	// MarkEventProcessed records an event id, returning false when the
	// event was already applied. Used for at-least-once delivery.
	MarkEventProcessed(ctx context.Context, eventID uuid.UUID) (bool, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrRatingExists indicates the booking already carries its one rating
type ErrRatingExists struct {
	BookingID int64
}

func (e ErrRatingExists) Error() string {
	return "rating already exists for booking: " + strconv.FormatInt(e.BookingID, 10)
}

// Is matches any ErrRatingExists when the target carries a zero id
func (e ErrRatingExists) Is(target error) bool {
	t, ok := target.(ErrRatingExists)
	if !ok {
		return false
	}
	if t.BookingID == 0 {
		return true
	}
	return e.BookingID == t.BookingID
}

// ErrRatingNotFound indicates a missing rating
type ErrRatingNotFound struct {
	BookingID int64
}

func (e ErrRatingNotFound) Error() string {
	return "rating not found for booking: " + strconv.FormatInt(e.BookingID, 10)
}

// Is matches any ErrRatingNotFound when the target carries a zero id
func (e ErrRatingNotFound) Is(target error) bool {
	t, ok := target.(ErrRatingNotFound)
	if !ok {
		return false
	}
	if t.BookingID == 0 {
		return true
	}
	return e.BookingID == t.BookingID
}
