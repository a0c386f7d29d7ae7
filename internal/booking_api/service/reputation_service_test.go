package service

import (
	"context"
	"errors"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/artisan-escrow-ledger/internal/domain/booking"
	"github.com/artisan-escrow-ledger/internal/domain/outbox"
	"github.com/artisan-escrow-ledger/internal/domain/reputation"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// MockReputationRepo mocks the reputation.Repository interface
type MockReputationRepo struct {
	mock.Mock
}

func (m *MockReputationRepo) CreateRating(ctx context.Context, rating *reputation.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *MockReputationRepo) GetRatingByBookingID(ctx context.Context, bookingID int64) (*reputation.Rating, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reputation.Rating), args.Error(1)
}

func (m *MockReputationRepo) GetProviderReputation(ctx context.Context, providerID string) (*reputation.ProviderReputation, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reputation.ProviderReputation), args.Error(1)
}

func (m *MockReputationRepo) ApplyCompletion(ctx context.Context, providerID string) error {
	args := m.Called(ctx, providerID)
	return args.Error(0)
}

func (m *MockReputationRepo) ApplyRating(ctx context.Context, providerID string, score int) error {
	args := m.Called(ctx, providerID, score)
	return args.Error(0)
}

func (m *MockReputationRepo) MarkEventProcessed(ctx context.Context, eventID uuid.UUID) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReputationRepo) WithTx(tx pgx.Tx) reputation.Repository {
	args := m.Called(tx)
	return args.Get(0).(reputation.Repository)
}

type reputationServiceFixture struct {
	tx             stubTx
	bookingRepo    *MockBookingRepo
	reputationRepo *MockReputationRepo
	outboxRepo     *MockOutboxRepo
	svc            ReputationService
}

func newReputationServiceFixture() *reputationServiceFixture {
	f := &reputationServiceFixture{
		bookingRepo:    &MockBookingRepo{},
		reputationRepo: &MockReputationRepo{},
		outboxRepo:     &MockOutboxRepo{},
	}
	f.svc = NewReputationService(slog.Default(), &fakeTxRunner{tx: f.tx}, f.bookingRepo, f.reputationRepo, f.outboxRepo)
	return f
}

func TestReputationService_RateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("records rating and outbox event together", func(t *testing.T) {
		f := newReputationServiceFixture()
		f.bookingRepo.On("GetByID", ctx, int64(42)).Return(storedBooking(42, booking.StatusCompleted), nil).Once()
		f.reputationRepo.On("WithTx", f.tx).Return(f.reputationRepo)
		f.reputationRepo.On("CreateRating", ctx, mock.MatchedBy(func(r *reputation.Rating) bool {
			return r.BookingID == 42 && r.Score == 5 && r.ProviderID == "provider-1"
		})).Return(nil).Once()
		f.outboxRepo.On("WithTx", f.tx).Return(f.outboxRepo)
		f.outboxRepo.On("Create", ctx, mock.MatchedBy(func(m *outbox.Message) bool {
			event, err := m.GetBookingEvent()
			return err == nil &&
				event.Type == shared.EventTypeRatingRecorded &&
				event.BookingID == 42 &&
				event.Score == 5
		})).Return(nil).Once()

		rating, err := f.svc.RateBooking(ctx, theClient, 42, 5, "Excellent work")

		require.NoError(t, err)
		assert.Equal(t, 5, rating.Score)
		assert.Equal(t, "Excellent work", rating.Comment)
		f.reputationRepo.AssertExpectations(t)
		f.outboxRepo.AssertExpectations(t)
	})

	t.Run("only completed bookings can be rated", func(t *testing.T) {
		for _, status := range []booking.Status{booking.StatusPending, booking.StatusConfirmed, booking.StatusInProgress, booking.StatusCancelled, booking.StatusDisputed} {
			f := newReputationServiceFixture()
			f.bookingRepo.On("GetByID", ctx, int64(42)).Return(storedBooking(42, status), nil).Once()

			_, err := f.svc.RateBooking(ctx, theClient, 42, 4, "")

			assert.ErrorIs(t, err, ErrBookingNotCompleted, "status %s", status)
			f.reputationRepo.AssertNotCalled(t, "CreateRating", mock.Anything, mock.Anything)
		}
	})

	t.Run("only the booking's client may rate", func(t *testing.T) {
		f := newReputationServiceFixture()
		f.bookingRepo.On("GetByID", ctx, int64(42)).Return(storedBooking(42, booking.StatusCompleted), nil).Times(3)

		otherClient := shared.Party{ID: "client-2", Role: shared.RoleClient}
		for _, caller := range []shared.Party{otherClient, theProvider, anAdmin} {
			_, err := f.svc.RateBooking(ctx, caller, 42, 4, "")
			assert.ErrorIs(t, err, ErrNotBookingClient, "caller %s", caller.ID)
		}
	})

	t.Run("score out of range is rejected", func(t *testing.T) {
		f := newReputationServiceFixture()
		f.bookingRepo.On("GetByID", ctx, int64(42)).Return(storedBooking(42, booking.StatusCompleted), nil).Twice()

		_, err := f.svc.RateBooking(ctx, theClient, 42, 0, "")
		assert.ErrorIs(t, err, reputation.ErrInvalidScore)

		_, err = f.svc.RateBooking(ctx, theClient, 42, 6, "")
		assert.ErrorIs(t, err, reputation.ErrInvalidScore)
	})

	t.Run("duplicate rating is surfaced", func(t *testing.T) {
		f := newReputationServiceFixture()
		f.bookingRepo.On("GetByID", ctx, int64(42)).Return(storedBooking(42, booking.StatusCompleted), nil).Once()
		f.reputationRepo.On("WithTx", f.tx).Return(f.reputationRepo)
		f.reputationRepo.On("CreateRating", ctx, mock.Anything).Return(reputation.ErrRatingExists{BookingID: 42}).Once()

		_, err := f.svc.RateBooking(ctx, theClient, 42, 4, "")

		assert.ErrorIs(t, err, reputation.ErrRatingExists{})
		f.outboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing booking", func(t *testing.T) {
		f := newReputationServiceFixture()
		f.bookingRepo.On("GetByID", ctx, int64(99)).Return(nil, booking.ErrBookingNotFound{ID: 99}).Once()

		_, err := f.svc.RateBooking(ctx, theClient, 99, 4, "")

		assert.ErrorIs(t, err, booking.ErrBookingNotFound{})
	})
}

func TestReputationService_GetProviderReputation(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the aggregate", func(t *testing.T) {
		f := newReputationServiceFixture()
		agg := &reputation.ProviderReputation{
			ProviderID:     "provider-1",
			CompletedCount: 12,
			RatingCount:    10,
			RatingTotal:    43,
		}
		f.reputationRepo.On("GetProviderReputation", ctx, "provider-1").Return(agg, nil).Once()

		got, err := f.svc.GetProviderReputation(ctx, "provider-1")

		require.NoError(t, err)
		assert.Equal(t, int64(12), got.CompletedCount)
		assert.InDelta(t, 4.3, got.AverageScore(), 0.0001)
	})

	t.Run("lookup error is surfaced", func(t *testing.T) {
		f := newReputationServiceFixture()
		f.reputationRepo.On("GetProviderReputation", ctx, "provider-1").Return(nil, errors.New("db down")).Once()

		_, err := f.svc.GetProviderReputation(ctx, "provider-1")
		assert.Error(t, err)
	})
}
