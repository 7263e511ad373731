package models

import "time"

const (
	FeedbackOpen            = "open"
	FeedbackActivelyLooking = "actively_looking"
	FeedbackResolved        = "resolved"
	FeedbackCannotWorkOn    = "cannot_work_on"
)

type Feedback struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id"`
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Message     string    `json:"message"`
	IsAnonymous bool      `json:"is_anonymous"`
	PageURL     *string   `json:"page_url"`
	UserAgent   *string   `json:"user_agent"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func IsValidFeedbackStatus(status string) bool {
	switch status {
	case FeedbackOpen, FeedbackActivelyLooking, FeedbackResolved, FeedbackCannotWorkOn:
		return true
	default:
		return false
	}
}
