package service

import (
	"context"
	"errors"
	"time"

	"github.com/artisan-escrow-ledger/internal/domain/booking"
	"github.com/artisan-escrow-ledger/internal/domain/custody"
	"github.com/artisan-escrow-ledger/internal/domain/reputation"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// Service-level policy errors
var (
	// ErrNotClient is returned when a non-client tries to create a booking
	ErrNotClient = errors.New("only clients can create bookings")

	// ErrBookingNotCompleted is returned when rating a booking that has
	// not reached its completed state
	ErrBookingNotCompleted = errors.New("booking must be completed before rating")

	// ErrNotBookingClient is returned when someone other than the
	// booking's client tries to rate it
	ErrNotBookingClient = errors.New("only the booking's client can rate it")
)

// CreateBookingParams carries the optional scheduling details alongside the
// required engagement terms
type CreateBookingParams struct {
	ProviderID         string
	ServiceDescription string
	Amount             int64
	EstimatedHours     float64
	ScheduledAt        time.Time
	Location           string
	Notes              string
}

// CustodyEngine defines the escrow operations the booking lifecycle drives.
// Implemented by the custody engine; abstracted here for testability.
type CustodyEngine interface {
	// Open allocates a custody id and creates a record in Created status
	Open(ctx context.Context, caller shared.Party, provider string, amount int64) (int64, error)

	// Fund locks the client's value in escrow
	Fund(ctx context.Context, id int64, caller shared.Party) error

	// Release finalizes custody in the provider's favor
	Release(ctx context.Context, id int64, caller shared.Party) error

	// Refund returns the escrowed value to the client
	Refund(ctx context.Context, id int64, caller shared.Party) error

	// Dispute freezes custody pending administrative resolution
	Dispute(ctx context.Context, id int64, caller shared.Party) error

	// Get reads the current custody record
	Get(ctx context.Context, id int64) (*custody.Record, error)
}

// BookingService defines the booking lifecycle operations. It is the single
// authority that calls into the custody engine; handlers never drive
// custody directly.
type BookingService interface {
	// CreateBooking opens a custody record and stores the booking in
	// Pending status. Only clients may create bookings.
	CreateBooking(ctx context.Context, caller shared.Party, params CreateBookingParams) (*booking.Booking, error)

	// GetBookingByID retrieves a booking.
	// Returns ErrBookingNotFound if it doesn't exist.
	GetBookingByID(ctx context.Context, id int64) (*booking.Booking, error)

	// GetCustodyByBookingID retrieves the custody record backing a booking
	GetCustodyByBookingID(ctx context.Context, id int64) (*custody.Record, error)

	// ListBookings returns the caller's bookings (all bookings for
	// admins) with pagination. Returns bookings, total count, and error.
	ListBookings(ctx context.Context, caller shared.Party, page, perPage int) ([]*booking.Booking, int64, error)

	// ChangeStatus drives one lifecycle transition, performing the
	// paired custody operation before the booking status is committed
	ChangeStatus(ctx context.Context, id int64, to booking.Status, caller shared.Party) (*booking.Booking, error)
}

// ReputationService defines rating submission and reputation reads
type ReputationService interface {
	// RateBooking records the client's write-once rating for a completed
	// booking. Returns ErrRatingExists if the booking is already rated.
	RateBooking(ctx context.Context, caller shared.Party, bookingID int64, score int, comment string) (*reputation.Rating, error)

	// GetProviderReputation returns the provider's aggregate, zero-valued
	// when the provider has no history
	GetProviderReputation(ctx context.Context, providerID string) (*reputation.ProviderReputation, error)
}
