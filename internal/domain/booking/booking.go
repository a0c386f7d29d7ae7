package booking

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrEmptyClient        = errors.New("booking client cannot be empty")
	ErrEmptyProvider      = errors.New("booking provider cannot be empty")
	ErrSameClientProvider = errors.New("client and provider cannot be the same party")
	ErrEmptyDescription   = errors.New("service description cannot be empty")
	ErrInvalidAmount      = errors.New("booking amount must be positive")
)

// Status defines the off-ledger booking lifecycle, distinct from custody
// status. Custody remains the source of truth for where value sits.
type Status string

const (
	StatusPending    Status = "PENDING"     // Requested, funds not locked
	StatusConfirmed  Status = "CONFIRMED"   // Funds locked in escrow
	StatusInProgress Status = "IN_PROGRESS" // Provider started work
	StatusCompleted  Status = "COMPLETED"   // Terminal: client confirmed, funds released
	StatusCancelled  Status = "CANCELLED"   // Terminal: engagement abandoned, funds refunded if locked
	StatusDisputed   Status = "DISPUTED"    // Frozen pending administrative resolution
)

// IsTerminal reports whether the booking lifecycle has ended
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus converts a string into a Status, rejecting unknown values
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusDisputed:
		return Status(s), nil
	default:
		return "", errors.New("unknown booking status: " + s)
	}
}

// Booking represents one service engagement between a client and a
// provider. Its id doubles as the custody record id; exactly one custody
// record exists per booking.
type Booking struct {
	ID                 int64     `json:"id"`
	ClientID           string    `json:"client_id"`
	ProviderID         string    `json:"provider_id"`
	ServiceDescription string    `json:"service_description"`
	EstimatedHours     float64   `json:"estimated_hours,omitempty"`
	Amount             int64     `json:"amount"` // Minor units, escrowed on confirmation
	Status             Status    `json:"status"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	Location           string    `json:"location,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewBooking creates a booking in Pending status. The id must come from the
// custody ledger counter so booking and custody record stay keyed together.
func NewBooking(id int64, clientID, providerID, description string, amount int64) (*Booking, error) {
	if clientID == "" {
		return nil, ErrEmptyClient
	}
	if providerID == "" {
		return nil, ErrEmptyProvider
	}
	if clientID == providerID {
		return nil, ErrSameClientProvider
	}
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	return &Booking{
		ID:                 id,
		ClientID:           clientID,
		ProviderID:         providerID,
		ServiceDescription: description,
		Amount:             amount,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}
