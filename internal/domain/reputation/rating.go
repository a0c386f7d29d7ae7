package reputation

import (
	"errors"
	"time"
)

var ErrInvalidScore = errors.New("rating score must be between 1 and 5")

// Rating is the write-once review a client leaves for a completed booking.
// Uniqueness per booking id is enforced by the store.
type Rating struct {
	BookingID  int64     `json:"booking_id"`
	ClientID   string    `json:"client_id"`
	ProviderID string    `json:"provider_id"`
	Score      int       `json:"score"` // 1..5
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRating creates a rating for a completed booking
func NewRating(bookingID int64, clientID, providerID string, score int, comment string) (*Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}

	return &Rating{
		BookingID:  bookingID,
		ClientID:   clientID,
		ProviderID: providerID,
		Score:      score,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// ProviderReputation is the per-provider aggregate maintained by the
// reputation worker from booking events.
type ProviderReputation struct {
	ProviderID     string    `json:"provider_id"`
	CompletedCount int64     `json:"completed_count"`
	RatingCount    int64     `json:"rating_count"`
	RatingTotal    int64     `json:"rating_total"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AverageScore returns the mean rating, or zero when unrated
func (p *ProviderReputation) AverageScore() float64 {
	if p.RatingCount == 0 {
		return 0
	}
	return float64(p.RatingTotal) / float64(p.RatingCount)
}
