package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository defines booking persistence operations. Counts are scoped the
// same way the listings are, so pagination totals never leak bookings the
// caller cannot see.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)

	// GetForUpdate acquires a row lock so lifecycle transitions for one
	// booking are serialized. Must run inside a transaction.
	GetForUpdate(ctx context.Context, id int64) (*Booking, error)

	UpdateStatus(ctx context.Context, id int64, status Status, updatedAt time.Time) error
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*Booking, error)
	ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*Booking, error)
	List(ctx context.Context, limit, offset int) ([]*Booking, error)
	CountByClient(ctx context.Context, clientID string) (int64, error)
	CountByProvider(ctx context.Context, providerID string) (int64, error)
	Count(ctx context.Context) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrBookingNotFound indicates a missing booking
type ErrBookingNotFound struct {
	ID int64
}

func (e ErrBookingNotFound) Error() string {
	return "booking not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrBookingNotFound when the target carries a zero id
func (e ErrBookingNotFound) Is(target error) bool {
	t, ok := target.(ErrBookingNotFound)
	if !ok {
		return false
	}
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID
}
