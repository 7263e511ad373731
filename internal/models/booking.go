package models

import "time"

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

type Booking struct {
	ID          int64      `json:"id"`
	CoachID     int64      `json:"coach_id"`
	ClientID    int64      `json:"client_id"`
	SlotNumber  int        `json:"slot_number"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Status      string     `json:"status"`
	Notes       *string    `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type BookingDetail struct {
	Booking
	CoachName  string `json:"coach_name"`
	ClientName string `json:"client_name"`
}

// IsActive reports whether the booking still holds one of the coach's slots.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
