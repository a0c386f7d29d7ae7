package custody

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidAmount = errors.New("custody amount must be positive")
	ErrEmptyClient   = errors.New("custody client cannot be empty")
	ErrEmptyProvider = errors.New("custody provider cannot be empty")
)

// Status defines the custody states for escrowed funds
type Status string

const (
	StatusCreated  Status = "CREATED"  // Record exists, no value locked yet
	StatusFunded   Status = "FUNDED"   // Client value locked in escrow
	StatusDisputed Status = "DISPUTED" // Frozen pending administrative resolution
	StatusReleased Status = "RELEASED" // Terminal: value went to the provider
	StatusRefunded Status = "REFUNDED" // Terminal: value went back to the client
)

// IsTerminal reports whether no further transition is permitted
func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// transitions is the only source of legal custody edges. Anything not
// listed here is unreachable.
var transitions = map[Status][]Status{
	StatusCreated:  {StatusFunded},
	StatusFunded:   {StatusReleased, StatusRefunded, StatusDisputed},
	StatusDisputed: {StatusReleased, StatusRefunded},
}

// CanTransition reports whether the edge from -> to exists in the state machine
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Record represents funds held in escrow for one booking. Client, provider
// and amount are immutable after creation; only status and the expiration
// horizon change.
type Record struct {
	ID        int64     `json:"id" bson:"_id"`
	Client    string    `json:"client" bson:"client"`
	Provider  string    `json:"provider" bson:"provider"`
	Amount    int64     `json:"amount" bson:"amount"` // Minor units
	Status    Status    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// NewRecord creates a custody record in Created status. The id must come
// from the ledger counter and the horizon from the engine's clock.
func NewRecord(id int64, client, provider string, amount int64, now, expiresAt time.Time) (*Record, error) {
	if client == "" {
		return nil, ErrEmptyClient
	}
	if provider == "" {
		return nil, ErrEmptyProvider
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return &Record{
		ID:        id,
		Client:    client,
		Provider:  provider,
		Amount:    amount,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}
