package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/artisan-escrow-ledger/internal/domain/booking"
	"github.com/artisan-escrow-ledger/internal/domain/custody"
	"github.com/artisan-escrow-ledger/internal/domain/outbox"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// TxRunner runs a function inside a database transaction.
// Satisfied by *persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// BookingServiceImpl implements the BookingService interface. Every status
// change runs under a row lock so transitions for one booking are
// serialized, and the paired custody operation must succeed before the
// booking status is committed.
type BookingServiceImpl struct {
	db          TxRunner
	bookingRepo booking.Repository
	outboxRepo  outbox.Repository
	custody     CustodyEngine
	logger      *slog.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(logger *slog.Logger, db TxRunner, bookingRepo booking.Repository, outboxRepo outbox.Repository, custodyEngine CustodyEngine) BookingService {
	return &BookingServiceImpl{
		db:          db,
		bookingRepo: bookingRepo,
		outboxRepo:  outboxRepo,
		custody:     custodyEngine,
		logger:      logger,
	}
}

// CreateBooking opens a custody record for the engagement and stores the
// booking in Pending status under the custody id. No funds move yet.
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, caller shared.Party, params CreateBookingParams) (*booking.Booking, error) {
	if caller.Role != shared.RoleClient {
		return nil, ErrNotClient
	}

	id, err := s.custody.Open(ctx, caller, params.ProviderID, params.Amount)
	if err != nil {
		return nil, err
	}

	b, err := booking.NewBooking(id, caller.ID, params.ProviderID, params.ServiceDescription, params.Amount)
	if err != nil {
		return nil, err
	}
	b.EstimatedHours = params.EstimatedHours
	b.ScheduledAt = params.ScheduledAt
	b.Location = params.Location
	b.Notes = params.Notes

	if err := s.bookingRepo.Create(ctx, b); err != nil {
		// The custody record stays in Created with no value locked;
		// the storage substrate collects it at the horizon.
		s.logger.Error("Failed to store booking after custody open",
			"booking_id", id,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Booking created",
		"booking_id", b.ID,
		"client_id", b.ClientID,
		"provider_id", b.ProviderID,
		"amount", b.Amount,
	)
	return b, nil
}

// GetBookingByID retrieves a booking by its id
func (s *BookingServiceImpl) GetBookingByID(ctx context.Context, id int64) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// GetCustodyByBookingID reads the custody record backing a booking
func (s *BookingServiceImpl) GetCustodyByBookingID(ctx context.Context, id int64) (*custody.Record, error) {
	return s.custody.Get(ctx, id)
}

// ListBookings returns paginated bookings scoped to the caller. Admins see
// every booking; clients and providers see their own. The pagination total
// carries the same scope as the listing.
func (s *BookingServiceImpl) ListBookings(ctx context.Context, caller shared.Party, page, perPage int) ([]*booking.Booking, int64, error) {
	offset := (page - 1) * perPage

	var (
		bookings []*booking.Booking
		total    int64
		err      error
	)
	switch caller.Role {
	case shared.RoleAdmin:
		if bookings, err = s.bookingRepo.List(ctx, perPage, offset); err == nil {
			total, err = s.bookingRepo.Count(ctx)
		}
	case shared.RoleProvider:
		if bookings, err = s.bookingRepo.ListByProvider(ctx, caller.ID, perPage, offset); err == nil {
			total, err = s.bookingRepo.CountByProvider(ctx, caller.ID)
		}
	default:
		if bookings, err = s.bookingRepo.ListByClient(ctx, caller.ID, perPage, offset); err == nil {
			total, err = s.bookingRepo.CountByClient(ctx, caller.ID)
		}
	}
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ChangeStatus drives one lifecycle transition. The booking row is locked
// for the duration, the transition is authorized against the single
// authorization table, the paired custody operation runs, and only then is
// the new status committed together with any outbox event.
func (s *BookingServiceImpl) ChangeStatus(ctx context.Context, id int64, to booking.Status, caller shared.Party) (*booking.Booking, error) {
	var updated *booking.Booking

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.bookingRepo.WithTx(tx)

		b, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := booking.Authorize(b, to, caller); err != nil {
			s.logger.Warn("Booking transition rejected",
				"booking_id", id,
				"from", string(b.Status),
				"to", string(to),
				"caller", caller.ID,
				"error", err,
			)
			return err
		}

		// The custody operation is the authority: the booking status
		// never advances unless the escrow side effect succeeded.
		if err := s.applyCustody(ctx, b, to, caller); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := repo.UpdateStatus(ctx, id, to, now); err != nil {
			return err
		}

		if to == booking.StatusCompleted {
			event := shared.NewBookingCompletedEvent(b.ID, b.ClientID, b.ProviderID, b.Amount)
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return fmt.Errorf("failed to build completion event: %w", err)
			}
			if err := s.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
				return err
			}
		}

		b.Status = to
		b.UpdatedAt = now
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking transition applied",
		"booking_id", id,
		"status", string(to),
		"caller", caller.ID,
	)
	return updated, nil
}

// applyCustody maps a booking transition onto its custody operation.
// Pending -> Cancelled is the one edge with no custody call: no value was
// ever locked, so there is nothing to move.
func (s *BookingServiceImpl) applyCustody(ctx context.Context, b *booking.Booking, to booking.Status, caller shared.Party) error {
	switch to {
	case booking.StatusConfirmed:
		return s.custody.Fund(ctx, b.ID, caller)
	case booking.StatusInProgress:
		// Work starting moves no value
		return nil
	case booking.StatusCompleted:
		return s.custody.Release(ctx, b.ID, caller)
	case booking.StatusCancelled:
		if b.Status == booking.StatusPending {
			return nil
		}
		return s.custody.Refund(ctx, b.ID, caller)
	case booking.StatusDisputed:
		return s.custody.Dispute(ctx, b.ID, caller)
	default:
		return booking.ErrTransitionNotAllowed{From: b.Status, To: to}
	}
}
