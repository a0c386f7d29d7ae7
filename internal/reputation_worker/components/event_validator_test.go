package components

import (
	"context"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

func TestEventValidator_Validate(t *testing.T) {
	validator := NewEventValidator(slog.Default())
	ctx := context.Background()

	t.Run("valid completion event", func(t *testing.T) {
		event := shared.NewBookingCompletedEvent(42, "client-1", "provider-1", 15000)
		assert.NoError(t, validator.Validate(ctx, event))
	})

	t.Run("valid rating event", func(t *testing.T) {
		event := shared.NewRatingRecordedEvent(42, "client-1", "provider-1", 5)
		assert.NoError(t, validator.Validate(ctx, event))
	})

	t.Run("missing event id", func(t *testing.T) {
		event := shared.NewBookingCompletedEvent(42, "client-1", "provider-1", 15000)
		event.EventID = uuid.Nil

		err := validator.Validate(ctx, event)
		assert.ErrorIs(t, err, shared.ErrInvalidEventType)
	})

	t.Run("unknown event type", func(t *testing.T) {
		event := shared.NewBookingCompletedEvent(42, "client-1", "provider-1", 15000)
		event.Type = "BOOKING_EXPLODED"

		err := validator.Validate(ctx, event)
		assert.ErrorIs(t, err, shared.ErrInvalidEventType)
	})

	t.Run("non-positive booking id", func(t *testing.T) {
		event := shared.NewBookingCompletedEvent(0, "client-1", "provider-1", 15000)

		err := validator.Validate(ctx, event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "booking id")
	})

	t.Run("missing provider id", func(t *testing.T) {
		event := shared.NewBookingCompletedEvent(42, "client-1", "", 15000)

		err := validator.Validate(ctx, event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "provider id")
	})

	t.Run("rating score out of range", func(t *testing.T) {
		for _, score := range []int{0, 6, -1} {
			event := shared.NewRatingRecordedEvent(42, "client-1", "provider-1", score)

			err := validator.Validate(ctx, event)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "score")
		}
	})

	t.Run("score is not checked on completion events", func(t *testing.T) {
		event := shared.NewBookingCompletedEvent(42, "client-1", "provider-1", 15000)
		event.Score = 0
		assert.NoError(t, validator.Validate(ctx, event))
	})
}
