package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/artisan-escrow-ledger/internal/config"
	"github.com/artisan-escrow-ledger/internal/domain/outbox"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

// MockEventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func newTestMessage(t *testing.T, id int64, attempts int) *outbox.Message {
	t.Helper()
	event := shared.NewBookingCompletedEvent(42, "client-1", "provider-1", 15000)
	msg, err := outbox.NewMessage(event)
	assert.NoError(t, err)
	msg.ID = id
	msg.Attempts = attempts
	return msg
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	logger := slog.Default()

	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	t.Run("successful processing of pending messages", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		message1 := newTestMessage(t, 1, 0)
		message2 := newTestMessage(t, 2, 0)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message1).Return(nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message2).Return(nil).Once()

		err := poller.processPendingMessages(context.Background())
		assert.NoError(t, err)
		mockOutboxRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("no pending messages", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()

		err := poller.processPendingMessages(context.Background())
		assert.NoError(t, err)
		mockPublisher.AssertNotCalled(t, "PublishEvent")
	})

	t.Run("publish failure increments attempts", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		message := newTestMessage(t, 3, 0)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message}, nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message).Return(errors.New("kafka down")).Once()
		mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()

		err := poller.processPendingMessages(context.Background())
		assert.NoError(t, err)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("max retries marks message failed", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		// Third attempt will cross the configured max of 3
		message := newTestMessage(t, 4, 2)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message}, nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message).Return(errors.New("kafka down")).Once()
		mockOutboxRepo.On("IncrementAttempts", mock.Anything, int64(4)).Return(nil).Once()
		mockOutboxRepo.On("UpdateStatus", mock.Anything, int64(4), shared.OutboxStatusFailedToPublish).Return(nil).Once()

		err := poller.processPendingMessages(context.Background())
		assert.NoError(t, err)
		mockOutboxRepo.AssertExpectations(t)
	})

	t.Run("get pending failure is returned", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()

		err := poller.processPendingMessages(context.Background())
		assert.Error(t, err)
	})
}

var _ outbox.Repository = (*MockOutboxRepo)(nil)
var _ EventPublisher = (*MockEventPublisher)(nil)
