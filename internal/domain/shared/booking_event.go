package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidEventType = errors.New("invalid booking event type")

// EventType defines the booking events published to the reputation pipeline
type EventType string

const (
	EventTypeBookingCompleted EventType = "BOOKING_COMPLETED"
	EventTypeRatingRecorded   EventType = "RATING_RECORDED"
)

// BookingEvent is the Kafka message emitted when a booking completes or a
// rating is recorded. The reputation worker folds these into per-provider
// aggregates.
type BookingEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Type       EventType `json:"type"`
	BookingID  int64     `json:"booking_id"`
	ClientID   string    `json:"client_id"`
	ProviderID string    `json:"provider_id"`
	Amount     int64     `json:"amount,omitempty"` // Minor units, set on completion events
	Score      int       `json:"score,omitempty"`  // 1..5, set on rating events
	OccurredAt time.Time `json:"occurred_at"`
}

// NewBookingCompletedEvent builds the event emitted when custody is released
func NewBookingCompletedEvent(bookingID int64, clientID, providerID string, amount int64) *BookingEvent {
	return &BookingEvent{
		EventID:    uuid.New(),
		Type:       EventTypeBookingCompleted,
		BookingID:  bookingID,
		ClientID:   clientID,
		ProviderID: providerID,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
}

// NewRatingRecordedEvent builds the event emitted when a client rates a
// completed booking
func NewRatingRecordedEvent(bookingID int64, clientID, providerID string, score int) *BookingEvent {
	return &BookingEvent{
		EventID:    uuid.New(),
		Type:       EventTypeRatingRecorded,
		BookingID:  bookingID,
		ClientID:   clientID,
		ProviderID: providerID,
		Score:      score,
		OccurredAt: time.Now().UTC(),
	}
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
