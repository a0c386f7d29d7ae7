package handler

import "time"

// CreateBookingRequest represents a request to book a provider's service
type CreateBookingRequest struct {
	ProviderID         string    `json:"provider_id" binding:"required"`
	ServiceDescription string    `json:"service_description" binding:"required"`
	Amount             int64     `json:"amount" binding:"required,gt=0"`
	EstimatedHours     float64   `json:"estimated_hours,omitempty" binding:"omitempty,gt=0"`
	ScheduledAt        time.Time `json:"scheduled_at,omitempty"`
	Location           string    `json:"location,omitempty"`
	Notes              string    `json:"notes,omitempty"`
}

// UpdateBookingStatusRequest represents a lifecycle transition request
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CONFIRMED IN_PROGRESS COMPLETED CANCELLED DISPUTED"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID                 int64   `json:"id"`
	ClientID           string  `json:"client_id"`
	ProviderID         string  `json:"provider_id"`
	ServiceDescription string  `json:"service_description"`
	EstimatedHours     float64 `json:"estimated_hours,omitempty"`
	Amount             int64   `json:"amount"`
	Status             string  `json:"status"`
	CustodyStatus      string  `json:"custody_status,omitempty"`
	ScheduledAt        string  `json:"scheduled_at,omitempty"`
	Location           string  `json:"location,omitempty"`
	Notes              string  `json:"notes,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// BookingListResponse represents a list of bookings in API responses
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// CreateRatingRequest represents a client's rating for a completed booking
type CreateRatingRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

// RatingResponse represents a rating in API responses
type RatingResponse struct {
	BookingID  int64  `json:"booking_id"`
	ClientID   string `json:"client_id"`
	ProviderID string `json:"provider_id"`
	Score      int    `json:"score"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ReputationResponse represents a provider's aggregate reputation
type ReputationResponse struct {
	ProviderID     string  `json:"provider_id"`
	CompletedCount int64   `json:"completed_count"`
	RatingCount    int64   `json:"rating_count"`
	AverageScore   float64 `json:"average_score"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
