package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisan-escrow-ledger/internal/domain/outbox"
	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

func pendingMessage(t *testing.T) *outbox.Message {
	t.Helper()
	event := shared.NewBookingCompletedEvent(42, "client-1", "provider-1", 15000)
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)
	return msg
}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	msg := pendingMessage(t)

	query := `
			INSERT INTO booking_outbox \(event_id, booking_id, payload, status, attempts, created_at\)
			VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)
			RETURNING id
	`

	t.Run("success assigns the row id", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(msg.EventID, msg.BookingID, msg.Payload, msg.Status, msg.Attempts, msg.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		err := repo.Create(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, int64(7), msg.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(msg.EventID, msg.BookingID, msg.Payload, msg.Status, msg.Attempts, msg.CreatedAt).
			WillReturnError(errors.New("db error"))

		err := repo.Create(ctx, msg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create outbox message")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
			SELECT id, event_id, booking_id, payload, status, attempts, created_at, last_attempt_at
			FROM booking_outbox
			WHERE status = \$1
			ORDER BY created_at ASC
			LIMIT \$2
	`

	t.Run("returns the pending batch", func(t *testing.T) {
		first := pendingMessage(t)
		second := pendingMessage(t)

		rows := pgxmock.NewRows([]string{"id", "event_id", "booking_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(1), first.EventID, first.BookingID, first.Payload, first.Status, first.Attempts, first.CreatedAt, (*time.Time)(nil)).
			AddRow(int64(2), second.EventID, second.BookingID, second.Payload, second.Status, second.Attempts, second.CreatedAt, (*time.Time)(nil))

		mock.ExpectQuery(query).
			WithArgs(shared.OutboxStatusPending, 10).
			WillReturnRows(rows)

		messages, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, int64(1), messages[0].ID)
		assert.Equal(t, first.EventID, messages[0].EventID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(shared.OutboxStatusPending, 10).
			WillReturnRows(pgxmock.NewRows([]string{"id", "event_id", "booking_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}))

		messages, err := repo.GetPending(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, messages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(shared.OutboxStatusPending, 10).
			WillReturnError(errors.New("db error"))

		_, err := repo.GetPending(ctx, 10)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
			UPDATE booking_outbox
			SET status = \$1, last_attempt_at = \$2
			WHERE id = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, 7, shared.OutboxStatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing message", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 99, shared.OutboxStatusProcessed)
		assert.ErrorIs(t, err, outbox.ErrMessageNotFound{ID: 99})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
			UPDATE booking_outbox
			SET attempts = attempts \+ 1, last_attempt_at = \$1
			WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.IncrementAttempts(ctx, 7)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing message", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementAttempts(ctx, 99)
		assert.ErrorIs(t, err, outbox.ErrMessageNotFound{ID: 99})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetByEventID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	msg := pendingMessage(t)

	query := `
			SELECT id, event_id, booking_id, payload, status, attempts, created_at, last_attempt_at
			FROM booking_outbox
			WHERE event_id = \$1
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "event_id", "booking_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(7), msg.EventID, msg.BookingID, msg.Payload, msg.Status, msg.Attempts, msg.CreatedAt, (*time.Time)(nil))

		mock.ExpectQuery(query).
			WithArgs(msg.EventID).
			WillReturnRows(rows)

		got, err := repo.GetByEventID(ctx, msg.EventID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)

		event, err := got.GetBookingEvent()
		require.NoError(t, err)
		assert.Equal(t, shared.EventTypeBookingCompleted, event.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(msg.EventID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "event_id", "booking_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}))

		_, err := repo.GetByEventID(ctx, msg.EventID)
		assert.ErrorIs(t, err, outbox.ErrMessageNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
